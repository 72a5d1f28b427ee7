package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-extract/internal/common"
)

// ImageExtractor treats every rendered page as one image and asks the
// vision model to describe it. A failed description does not stop the
// run; the page gets DescriptionUnavailable instead.
type ImageExtractor struct {
	Vision *Vision
	Pages  PageSource
	// Sink persists images when set. Otherwise the bytes stay on the
	// record for the rest of the run.
	Sink   ImageSink
	Logger *zap.Logger
}

// ImageFilename is the stored name of the index-th image (1-based, counted
// across the document) found on page.
func ImageFilename(page, index int) string {
	return fmt.Sprintf("page_%d_image_%d.png", page, index)
}

func (e *ImageExtractor) Extract(ctx context.Context) ([]ImageRecord, error) {
	log := common.OrNop(e.Logger)

	pages, err := e.Pages.Pages(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ImageRecord, 0, len(pages))
	for i, p := range pages {
		desc, err := e.Vision.Describe(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("extract.images.describe_failed", zap.Int("page", p.Number), zap.Error(err))
			desc = DescriptionUnavailable
		}

		rec := ImageRecord{Page: p.Number, Description: desc, RawImage: p.PNG}
		if e.Sink != nil {
			name := ImageFilename(p.Number, i+1)
			stored, err := e.Sink.Save(name, p.PNG)
			if err != nil {
				return nil, fmt.Errorf("save %s: %w", name, err)
			}
			log.Debug("extract.images.saved", zap.Int("page", p.Number), zap.String("path", stored))
			rec.StoredFilename = name
			rec.RawImage = nil
		}
		out = append(out, rec)
	}
	return out, nil
}
