package document

import (
	"context"
	"fmt"

	lpdf "github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// NativeText reads the embedded text layer page by page.
type NativeText struct{}

// PageTexts returns one entry per page, in page order. Pages without a
// text layer yield "". Text is NFKC-normalised, which folds typographic
// ligatures such as "ﬁ" into plain letters.
func (NativeText) PageTexts(ctx context.Context, path string) ([]string, error) {
	f, r, err := lpdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open text layer: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := pageText(r, i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func pageText(r *lpdf.Reader, i int) (s string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("text layer: %v", rec)
		}
	}()
	p := r.Page(i)
	if p.V.IsNull() {
		return "", nil
	}
	t, err := p.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return norm.NFKC.String(t), nil
}
