package document

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/graphicsstate"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"
	"github.com/tsawler/tabula/text"

	"github.com/thywilljoshua/pdf-extract/internal/common"
)

// Table is a ruled table found on a page, as rows of cell text.
type Table struct {
	Page int
	Rows [][]string
}

// Lattice detects ruled tables from the stroked lines and rectangle
// borders on a page.
type Lattice struct {
	// RuleThickness is the largest rectangle side treated as a single
	// ruling line rather than a box. Zero means 2pt.
	RuleThickness float64
}

// Detect scans the given 1-based pages and returns tables in page order,
// then in grid order within a page. Pages outside the document are skipped.
func (l Lattice) Detect(ctx context.Context, path string, pageNumbers []int) ([]Table, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, common.SourceUnreadable(path, err)
	}
	defer r.Close()

	total, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}

	var out []Table
	for _, pn := range pageNumbers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pn < 1 || pn > total {
			continue
		}
		found, err := l.detectPage(r, pn)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pn, err)
		}
		out = append(out, found...)
	}
	return out, nil
}

func (l Lattice) detectPage(r *reader.Reader, pn int) ([]Table, error) {
	page, err := r.GetPage(pn - 1)
	if err != nil {
		return nil, err
	}
	data, err := pageContent(page)
	if err != nil || len(data) == 0 {
		return nil, err
	}

	ge := graphicsstate.NewGraphicsExtractor()
	if err := ge.ExtractFromBytes(data); err != nil {
		return nil, fmt.Errorf("graphics: %w", err)
	}
	h, v := ruling(ge, l.thickness())
	grids := tables.NewGridDetector().DetectFromLines(h, v)
	if len(grids) == 0 {
		return nil, nil
	}

	frags, err := r.ExtractTextFragments(page)
	if err != nil {
		return nil, fmt.Errorf("text fragments: %w", err)
	}
	var out []Table
	for _, g := range grids {
		if rows := cellsFromGrid(g.HorizontalLines, g.VerticalLines, frags); rows != nil {
			out = append(out, Table{Page: pn, Rows: rows})
		}
	}
	return out, nil
}

func (l Lattice) thickness() float64 {
	if l.RuleThickness > 0 {
		return l.RuleThickness
	}
	return 2
}

func pageContent(page *pages.Page) ([]byte, error) {
	contents, err := page.Contents()
	if err != nil {
		return nil, fmt.Errorf("contents: %w", err)
	}
	var data []byte
	for _, obj := range contents {
		s, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		b, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode content stream: %w", err)
		}
		data = append(data, b...)
		data = append(data, '\n')
	}
	return data, nil
}

// ruling merges stroked lines with rectangle edges. Many producers draw
// table rules as thin filled rectangles rather than line segments.
func ruling(ge *graphicsstate.GraphicsExtractor, thin float64) (h, v []graphicsstate.ExtractedLine) {
	gl := ge.GetGridLines()
	h = append(h, gl.Horizontals...)
	v = append(v, gl.Verticals...)
	for _, rc := range ge.GetRectangles() {
		rh, rv := rectEdges(rc.BBox, thin)
		h = append(h, rh...)
		v = append(v, rv...)
	}
	return h, v
}

func rectEdges(b model.BBox, thin float64) (h, v []graphicsstate.ExtractedLine) {
	x0, x1 := b.X, b.X+b.Width
	y0, y1 := b.Y, b.Y+b.Height
	switch {
	case b.Height <= thin && b.Width <= thin:
		return nil, nil
	case b.Height <= thin:
		return []graphicsstate.ExtractedLine{hline(x0, x1, (y0+y1)/2)}, nil
	case b.Width <= thin:
		return nil, []graphicsstate.ExtractedLine{vline((x0+x1)/2, y0, y1)}
	}
	return []graphicsstate.ExtractedLine{hline(x0, x1, y0), hline(x0, x1, y1)},
		[]graphicsstate.ExtractedLine{vline(x0, y0, y1), vline(x1, y0, y1)}
}

func hline(x0, x1, y float64) graphicsstate.ExtractedLine {
	return graphicsstate.ExtractedLine{
		Start:        model.Point{X: x0, Y: y},
		End:          model.Point{X: x1, Y: y},
		IsHorizontal: true,
		BBox:         model.BBox{X: x0, Y: y, Width: x1 - x0},
	}
}

func vline(x, y0, y1 float64) graphicsstate.ExtractedLine {
	return graphicsstate.ExtractedLine{
		Start:      model.Point{X: x, Y: y0},
		End:        model.Point{X: x, Y: y1},
		IsVertical: true,
		BBox:       model.BBox{X: x, Y: y0, Height: y1 - y0},
	}
}

// cellsFromGrid places each fragment in the cell containing its centre.
// ys are the row boundaries from top to bottom (PDF space, descending), xs
// the column boundaries from left to right. Grids with fewer than two
// cells, or with no text at all, are not tables.
func cellsFromGrid(ys, xs []float64, frags []text.TextFragment) [][]string {
	nrows, ncols := len(ys)-1, len(xs)-1
	if nrows < 1 || ncols < 1 || nrows*ncols < 2 {
		return nil
	}

	buckets := make([][]text.TextFragment, nrows*ncols)
	for _, f := range frags {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		cx, cy := f.X+f.Width/2, f.Y+f.Height/2
		c := sort.Search(ncols, func(i int) bool { return xs[i+1] > cx })
		r := sort.Search(nrows, func(i int) bool { return ys[i+1] < cy })
		if c >= ncols || cx < xs[0] || r >= nrows || cy > ys[0] {
			continue
		}
		buckets[r*ncols+c] = append(buckets[r*ncols+c], f)
	}

	rows := make([][]string, nrows)
	empty := true
	for r := range rows {
		rows[r] = make([]string, ncols)
		for c := range rows[r] {
			rows[r][c] = joinFragments(buckets[r*ncols+c])
			if rows[r][c] != "" {
				empty = false
			}
		}
	}
	if empty {
		return nil
	}
	return rows
}

// joinFragments orders fragments top to bottom, then left to right, and
// inserts a space wherever the horizontal gap or a line break warrants one.
func joinFragments(fs []text.TextFragment) string {
	if len(fs) == 0 {
		return ""
	}
	sort.SliceStable(fs, func(i, j int) bool {
		if math.Abs(fs[i].Y-fs[j].Y) > lineTolerance(fs[i], fs[j]) {
			return fs[i].Y > fs[j].Y
		}
		return fs[i].X < fs[j].X
	})

	var b strings.Builder
	for i, f := range fs {
		if i > 0 {
			prev := fs[i-1]
			sameLine := math.Abs(prev.Y-f.Y) <= lineTolerance(prev, f)
			gap := f.X - (prev.X + prev.Width)
			if !sameLine || gap > 0.15*math.Max(prev.FontSize, 1) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(f.Text)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func lineTolerance(a, b text.TextFragment) float64 {
	return math.Max(math.Min(a.Height, b.Height)/2, 1)
}
