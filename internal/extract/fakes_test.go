package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/thywilljoshua/pdf-extract/internal/ai"
	"github.com/thywilljoshua/pdf-extract/internal/document"
)

// fakeModel answers vision prompts per page. The page number is recovered
// from the fake PNG payload written by fakeRasterizer.
type fakeModel struct {
	mu      sync.Mutex
	answer  func(prompt string, page int) (string, error)
	prompts []string
	pages   []int
}

func (m *fakeModel) Complete(context.Context, string, string) (ai.Response, error) {
	return ai.Response{}, errors.New("not used")
}

func (m *fakeModel) Describe(_ context.Context, prompt string, img ai.Image) (ai.Response, error) {
	var page int
	fmt.Sscanf(string(img.Data), "page-%d", &page)
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.pages = append(m.pages, page)
	m.mu.Unlock()
	text, err := m.answer(prompt, page)
	return ai.Response{Text: text}, err
}

func (m *fakeModel) calls(prompt string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.prompts {
		if p == prompt {
			n++
		}
	}
	return n
}

type fakeRasterizer struct {
	n     int
	err   error
	calls int
}

func (r *fakeRasterizer) Rasterize(context.Context, string) ([]document.Page, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	out := make([]document.Page, r.n)
	for i := range out {
		out[i] = document.Page{Number: i + 1, PNG: []byte(fmt.Sprintf("page-%d", i+1))}
	}
	return out, nil
}

type fakeLayer struct {
	pages []string
	err   error
}

func (l fakeLayer) PageTexts(context.Context, string) ([]string, error) { return l.pages, l.err }

type fakeDetector struct {
	tables []document.Table
	err    error
	calls  int
	got    []int
}

func (d *fakeDetector) Detect(_ context.Context, _ string, pages []int) ([]document.Table, error) {
	d.calls++
	d.got = pages
	return d.tables, d.err
}

type memSink struct {
	saved map[string][]byte
	err   error
}

func (s *memSink) Save(name string, png []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[name] = png
	return "/images/" + name, nil
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}
