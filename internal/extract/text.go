package extract

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-extract/internal/common"
)

type TextResult struct {
	Text   string
	Method string
}

// TextExtractor reads the native text layer and escalates to a vision
// transcription when Completeness rejects it.
type TextExtractor struct {
	Layer        TextLayer
	Vision       *Vision
	Pages        PageSource
	Completeness Completeness
	// UseVision disables escalation when false; short native text is
	// then returned as is.
	UseVision bool
	Logger    *zap.Logger
}

func (e *TextExtractor) Extract(ctx context.Context, path string) (TextResult, error) {
	log := common.OrNop(e.Logger)
	start := time.Now()

	pages, err := e.Layer.PageTexts(ctx, path)
	if err != nil {
		if !e.UseVision {
			return TextResult{}, err
		}
		log.Warn("extract.text.native_failed", zap.Error(err), zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	}
	text := JoinPages(pages)

	if !e.UseVision || !e.Completeness.NeedsEscalation(text) {
		return TextResult{Text: text, Method: MethodNative}, nil
	}

	log.Info("extract.text.escalate",
		zap.Int("tokens", len(strings.Fields(text))),
		zap.Int("threshold", e.Completeness.Threshold()))
	rendered, err := e.Pages.Pages(ctx)
	if err != nil {
		return TextResult{}, err
	}
	vt, err := e.Vision.Text(ctx, rendered)
	if err != nil {
		return TextResult{}, err
	}
	return TextResult{Text: vt, Method: MethodVision}, nil
}

// JoinPages concatenates page texts, each followed by a blank line.
// Pages without text contribute nothing.
func JoinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		if strings.TrimSpace(p) == "" {
			continue
		}
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	return b.String()
}
