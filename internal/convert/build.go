package convert

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-extract/internal/ai"
	"github.com/thywilljoshua/pdf-extract/internal/common"
	"github.com/thywilljoshua/pdf-extract/internal/document"
	"github.com/thywilljoshua/pdf-extract/internal/export"
	"github.com/thywilljoshua/pdf-extract/internal/extract"
	"github.com/thywilljoshua/pdf-extract/internal/metrics"
)

// ConfigFrom maps the application config onto the pipeline config.
func ConfigFrom(cfg common.Config) Config {
	return Config{
		UseVisionFallback: cfg.UseVisionFallback,
		ExtractTables:     cfg.ExtractTables,
		ExtractImages:     cfg.ExtractImages,
		SaveImages:        cfg.SaveImages,
		OutputDirectory:   cfg.OutputDirectory,
		ModelIdentifier:   cfg.ModelIdentifier,
		TablePages:        cfg.TablePages,
		MinTextTokens:     cfg.MinTextTokens,
		Concurrent:        cfg.Concurrent,
	}
}

// New wires a Converter with the production collaborators: the
// configured model provider, MuPDF rendering, the native text layer and
// lattice table detection.
func New(ctx context.Context, cfg common.Config, logger *zap.Logger, m *metrics.Metrics) (*Converter, error) {
	model, err := ai.New(ctx, ai.Options{
		Provider:        cfg.Provider,
		Model:           cfg.ModelIdentifier,
		Temperature:     cfg.Temperature,
		GoogleAPIKey:    cfg.Credentials.GoogleAPIKey,
		OpenAIAPIKey:    cfg.Credentials.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.Credentials.OpenAIBaseURL,
		AnthropicAPIKey: cfg.Credentials.AnthropicAPIKey,
		OllamaHost:      cfg.Credentials.OllamaHost,
	})
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", cfg.ModelIdentifier, err)
	}

	pc := ConfigFrom(cfg)
	return &Converter{
		Model:      model,
		TextLayer:  document.NativeText{},
		Rasterizer: document.Rasterizer{DPI: cfg.DPI, MaxWidth: cfg.MaxImageWidth},
		Detector:   document.Lattice{},
		NewSink:    imageSink(pc.OutputDirectory),
		Resolve:    document.Open,
		Config:     pc,
		Logger:     logger,
		Metrics:    m,
	}, nil
}

func imageSink(dir string) func(document.Source) (extract.ImageSink, error) {
	return func(src document.Source) (extract.ImageSink, error) {
		if dir == "" {
			return export.DirSink{Dir: export.DefaultImageDir(src.Path)}, nil
		}
		return export.DirSink{Dir: dir}, nil
	}
}
