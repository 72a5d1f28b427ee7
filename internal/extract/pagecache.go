package extract

import (
	"context"
	"sync"

	"github.com/thywilljoshua/pdf-extract/internal/document"
)

// PageCache renders a document at most once per run and hands the same
// page sequence to every fallback. A failed render is cached as well.
type PageCache struct {
	r    Rasterizer
	path string

	mu    sync.Mutex
	done  bool
	pages []document.Page
	err   error
}

func NewPageCache(r Rasterizer, path string) *PageCache {
	return &PageCache{r: r, path: path}
}

func (c *PageCache) Pages(ctx context.Context) ([]document.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.done {
		c.pages, c.err = c.r.Rasterize(ctx, c.path)
		c.done = true
	}
	return c.pages, c.err
}

// Select returns the pages whose numbers are in want, keeping their order.
func Select(pages []document.Page, want []int) []document.Page {
	set := make(map[int]bool, len(want))
	for _, n := range want {
		set[n] = true
	}
	var out []document.Page
	for _, p := range pages {
		if set[p.Number] {
			out = append(out, p)
		}
	}
	return out
}
