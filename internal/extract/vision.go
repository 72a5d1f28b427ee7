package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-extract/internal/ai"
	"github.com/thywilljoshua/pdf-extract/internal/common"
	"github.com/thywilljoshua/pdf-extract/internal/document"
)

const (
	TextPrompt  = "Extract all the text from this image. Include all text content, preserving paragraphs, bullet points, and formatting as much as possible."
	TablePrompt = "Identify and extract all tables from this image. Convert each table to markdown format. Only include tables, not other text content. If no tables are present, respond with 'No tables found'."
	ImagePrompt = "Describe this image in detail. Focus on the visual content, any text present, and its relevance to the document. Provide a comprehensive description that could replace the image if needed."

	NoTablesSentinel       = "No tables found"
	DescriptionUnavailable = "Image description unavailable"
)

// Vision asks a vision-capable model about rendered pages. Calls are
// never retried. In text and table mode the first failed page ends the
// operation with an error and discards what earlier pages produced.
type Vision struct {
	Model  ai.Model
	Logger *zap.Logger
}

func NewVision(model ai.Model, logger *zap.Logger) *Vision {
	return &Vision{Model: model, Logger: common.OrNop(logger)}
}

// Text transcribes each page as "Page {n}:\n{text}\n\n", in page order.
func (v *Vision) Text(ctx context.Context, pages []document.Page) (string, error) {
	var b strings.Builder
	for _, p := range pages {
		res, err := v.ask(ctx, "text", TextPrompt, p)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "Page %d:\n%s\n\n", p.Number, res.Text)
	}
	return b.String(), nil
}

// Tables asks for every table on each page as markdown. Pages answering
// with the no-tables sentinel contribute nothing.
func (v *Vision) Tables(ctx context.Context, pages []document.Page) ([]TableRecord, error) {
	var out []TableRecord
	for _, p := range pages {
		res, err := v.ask(ctx, "tables", TablePrompt, p)
		if err != nil {
			return nil, err
		}
		if strings.Contains(res.Text, NoTablesSentinel) {
			continue
		}
		md := ai.StripCodeFences(res.Text)
		if md == "" {
			continue
		}
		out = append(out, TableRecord{Page: p.Number, Markdown: md})
	}
	return out, nil
}

// Describe returns a natural-language description of one page image.
func (v *Vision) Describe(ctx context.Context, p document.Page) (string, error) {
	res, err := v.ask(ctx, "image", ImagePrompt, p)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Text), nil
}

func (v *Vision) ask(ctx context.Context, mode, prompt string, p document.Page) (ai.Response, error) {
	start := time.Now()
	res, err := v.Model.Describe(ctx, prompt, ai.Image{MIMEType: "image/png", Data: p.PNG})
	if err != nil {
		v.Logger.Warn("extract.vision.failed",
			zap.String("mode", mode),
			zap.Int("page", p.Number),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
			zap.Error(err))
		return ai.Response{}, fmt.Errorf("vision %s page %d: %w", mode, p.Number, err)
	}
	v.Logger.Debug("extract.vision.page",
		zap.String("mode", mode),
		zap.Int("page", p.Number),
		zap.Int("chars", len(res.Text)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return res, nil
}
