package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-extract/internal/common"
	"github.com/thywilljoshua/pdf-extract/internal/convert"
	"github.com/thywilljoshua/pdf-extract/internal/export"
	"github.com/thywilljoshua/pdf-extract/internal/metrics"
)

type extractFlags struct {
	output      string
	model       string
	provider    string
	noTables    bool
	noImages    bool
	noLLMOCR    bool
	saveImages  bool
	imageDir    string
	pages       string
	minTokens   int
	concurrent  bool
	stats       bool
	tablesXLSX  string
	metricsFile string
}

func extractCmd(g *globalFlags) *cobra.Command {
	var f extractFlags

	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Convert a PDF into a single markdown document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			f.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			m := metrics.New()
			conv, err := convert.New(cmd.Context(), cfg, logger, m)
			if err != nil {
				return err
			}
			res, err := conv.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if f.output != "" {
				if err := export.WriteContent(f.output, res.Content); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				logger.Info("extract.output.written", zap.String("path", f.output))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), res.Content)
			}

			if cfg.TablesWorkbook != "" {
				if err := export.WriteWorkbook(cfg.TablesWorkbook, res.Tables); err != nil {
					return fmt.Errorf("write workbook: %w", err)
				}
				logger.Info("extract.workbook.written", zap.String("path", cfg.TablesWorkbook), zap.Int("tables", len(res.Tables)))
			}
			if f.metricsFile != "" {
				if err := m.WriteTextfile(f.metricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			logStats(logger, res.Stats)
			if f.stats {
				b, _ := json.MarshalIndent(res.Stats, "", "  ")
				fmt.Fprintln(cmd.ErrOrStderr(), string(b))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write markdown to this file instead of stdout")
	cmd.Flags().StringVarP(&f.model, "model", "m", common.DefaultModel, "model used for vision and combine")
	cmd.Flags().StringVar(&f.provider, "provider", "", "model provider: gemini|openai|anthropic|ollama (inferred from the model when empty)")
	cmd.Flags().BoolVar(&f.noTables, "no-tables", false, "skip table extraction")
	cmd.Flags().BoolVar(&f.noImages, "no-images", false, "skip image descriptions")
	cmd.Flags().BoolVar(&f.noLLMOCR, "no-llm-ocr", false, "never fall back to the vision model for text")
	cmd.Flags().BoolVar(&f.saveImages, "save-images", false, "write rendered page images to disk")
	cmd.Flags().StringVar(&f.imageDir, "image-dir", "", "directory for saved images (default: extracted_images next to the PDF)")
	cmd.Flags().StringVar(&f.pages, "pages", "all", `pages searched for tables, e.g. "1,3-5" or "all"`)
	cmd.Flags().IntVar(&f.minTokens, "min-tokens", common.DefaultMinTextTokens, "native text below this many tokens falls back to vision")
	cmd.Flags().BoolVar(&f.concurrent, "concurrent", false, "run the extraction stages concurrently")
	cmd.Flags().BoolVar(&f.stats, "stats", false, "print run statistics as JSON to stderr")
	cmd.Flags().StringVar(&f.tablesXLSX, "tables-xlsx", "", "also write extracted tables to this .xlsx workbook")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write run metrics in Prometheus textfile format")
	return cmd
}

// logStats writes the run summary the CLI reports after every extraction.
func logStats(logger *zap.Logger, s convert.Stats) {
	fields := []zap.Field{
		zap.String("run_id", s.RunID),
		zap.Int("table_count", s.TableCount),
		zap.Int("image_count", s.ImageCount),
		zap.Int("content_length", s.ContentLength),
		zap.Float64("total_time", s.TotalTime),
		zap.Ints("table_pages", s.TablePages),
		zap.Ints("image_pages", s.ImagePages),
	}
	if s.TokenUsage != nil {
		fields = append(fields,
			zap.Int("total_tokens", s.TokenUsage.TotalTokens),
			zap.Int("api_calls", s.TokenUsage.APICalls))
	}
	if len(s.FailedStages) > 0 {
		fields = append(fields, zap.Strings("failed_stages", s.FailedStages))
	}
	logger.Info("extract.stats", fields...)
}

// apply overrides cfg with the flags the user actually set, so config
// file and environment values survive flag defaults.
func (f *extractFlags) apply(cmd *cobra.Command, cfg *common.Config) {
	changed := cmd.Flags().Changed
	if changed("model") {
		cfg.ModelIdentifier = f.model
	}
	if changed("provider") {
		cfg.Provider = f.provider
	}
	if changed("no-tables") {
		cfg.ExtractTables = !f.noTables
	}
	if changed("no-images") {
		cfg.ExtractImages = !f.noImages
	}
	if changed("no-llm-ocr") {
		cfg.UseVisionFallback = !f.noLLMOCR
	}
	if changed("save-images") {
		cfg.SaveImages = f.saveImages
	}
	if changed("image-dir") {
		cfg.OutputDirectory = f.imageDir
	}
	if changed("pages") {
		cfg.TablePages = f.pages
	}
	if changed("min-tokens") {
		cfg.MinTextTokens = f.minTokens
	}
	if changed("concurrent") {
		cfg.Concurrent = f.concurrent
	}
	if changed("tables-xlsx") {
		cfg.TablesWorkbook = f.tablesXLSX
	}
}
