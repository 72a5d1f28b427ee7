package extract

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-extract/internal/common"
	"github.com/thywilljoshua/pdf-extract/internal/document"
)

type TableResult struct {
	Tables []TableRecord
	Method string
}

// TableExtractor tries lattice detection first. An empty or failed
// detection means only that the lattice found nothing; the selected pages
// then go to the vision model.
type TableExtractor struct {
	Detector TableDetector
	Vision   *Vision
	Pages    PageSource
	Logger   *zap.Logger
}

func (e *TableExtractor) Extract(ctx context.Context, src document.Source, sel PageSelector) (TableResult, error) {
	log := common.OrNop(e.Logger)
	want := sel.Resolve(src.Pages)
	start := time.Now()

	found, err := e.Detector.Detect(ctx, src.Path, want)
	switch {
	case err != nil:
		log.Warn("extract.tables.lattice_failed", zap.Error(err), zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	case len(found) > 0:
		return TableResult{Tables: fromLattice(found), Method: MethodLattice}, nil
	default:
		log.Info("extract.tables.escalate", zap.String("pages", sel.String()))
	}

	rendered, err := e.Pages.Pages(ctx)
	if err != nil {
		return TableResult{}, err
	}
	recs, err := e.Vision.Tables(ctx, Select(rendered, want))
	if err != nil {
		return TableResult{}, fmt.Errorf("vision tables: %w", err)
	}
	return TableResult{Tables: recs, Method: MethodVision}, nil
}

func fromLattice(found []document.Table) []TableRecord {
	out := make([]TableRecord, 0, len(found))
	for _, t := range found {
		out = append(out, TableRecord{
			Page:           t.Page,
			Markdown:       RenderTable(t.Rows),
			StructuredRows: StructuredRows(t.Rows),
		})
	}
	return out
}
