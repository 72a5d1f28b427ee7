package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-extract/internal/ai"
	"github.com/thywilljoshua/pdf-extract/internal/common"
	"github.com/thywilljoshua/pdf-extract/internal/document"
	"github.com/thywilljoshua/pdf-extract/internal/extract"
	"github.com/thywilljoshua/pdf-extract/internal/metrics"
)

type scriptedModel struct {
	mu      sync.Mutex
	vision  func(prompt string, page int) (string, error)
	combine func(prompt string) (string, error)

	systems     []string
	combined    []string
	visionCalls map[string]int
}

func (m *scriptedModel) Complete(_ context.Context, system, prompt string) (ai.Response, error) {
	m.mu.Lock()
	m.systems = append(m.systems, system)
	m.combined = append(m.combined, prompt)
	m.mu.Unlock()
	if m.combine == nil {
		return ai.Response{Text: "# merged", Usage: ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}, nil
	}
	text, err := m.combine(prompt)
	return ai.Response{Text: text}, err
}

func (m *scriptedModel) Describe(_ context.Context, prompt string, img ai.Image) (ai.Response, error) {
	var page int
	fmt.Sscanf(string(img.Data), "page-%d", &page)
	m.mu.Lock()
	if m.visionCalls == nil {
		m.visionCalls = map[string]int{}
	}
	m.visionCalls[prompt]++
	m.mu.Unlock()
	text, err := m.vision(prompt, page)
	return ai.Response{Text: text}, err
}

func (m *scriptedModel) calls(prompt string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visionCalls[prompt]
}

type pagesRasterizer struct {
	mu    sync.Mutex
	n     int
	calls int
}

func (r *pagesRasterizer) Rasterize(context.Context, string) ([]document.Page, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	out := make([]document.Page, r.n)
	for i := range out {
		out[i] = document.Page{Number: i + 1, PNG: []byte(fmt.Sprintf("page-%d", i+1))}
	}
	return out, nil
}

type staticLayer []string

func (l staticLayer) PageTexts(context.Context, string) ([]string, error) { return l, nil }

type staticDetector struct {
	tables []document.Table
	err    error
	calls  int
}

func (d *staticDetector) Detect(context.Context, string, []int) ([]document.Table, error) {
	d.calls++
	return d.tables, d.err
}

type recordingSink struct {
	mu    sync.Mutex
	names []string
}

func (s *recordingSink) Save(name string, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	return "out/" + name, nil
}

func fullConfig() Config {
	return Config{
		UseVisionFallback: true,
		ExtractTables:     true,
		ExtractImages:     true,
		ModelIdentifier:   "test-model",
		TablePages:        "all",
	}
}

func newConverter(model ai.Model, layer extract.TextLayer, det extract.TableDetector, r extract.Rasterizer, cfg Config) *Converter {
	pages := 1
	if pr, ok := r.(*pagesRasterizer); ok {
		pages = pr.n
	}
	return &Converter{
		Model:      model,
		TextLayer:  layer,
		Rasterizer: r,
		Detector:   det,
		Resolve: func(path string) (document.Source, error) {
			return document.Source{Path: path, Pages: pages}, nil
		},
		Config: cfg,
	}
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("lorem ", n))
}

func TestHelloWorldScenario(t *testing.T) {
	model := &scriptedModel{vision: func(prompt string, _ int) (string, error) {
		switch prompt {
		case extract.TextPrompt:
			return "Hello world", nil
		case extract.TablePrompt:
			return "No tables found", nil
		}
		return "", errors.New("unexpected prompt")
	}}
	det := &staticDetector{}
	cfg := fullConfig()
	cfg.ExtractImages = false
	c := newConverter(model, staticLayer{"Hello world"}, det, &pagesRasterizer{n: 1}, cfg)

	res, err := c.Process("hello.pdf")
	require.NoError(t, err)

	assert.Equal(t, 1, model.calls(extract.TextPrompt), "2 tokens escalate to vision")
	assert.Equal(t, 1, det.calls)
	assert.Equal(t, 1, model.calls(extract.TablePrompt), "empty lattice escalates to vision")
	assert.Empty(t, res.Tables)
	assert.Equal(t, "Page 1:\nHello world\n\n", res.Text)

	require.Len(t, model.combined, 1)
	assert.Equal(t, CombineSystemPrompt, model.systems[0])
	assert.Contains(t, model.combined[0], "No tables extracted")
	assert.Contains(t, model.combined[0], "No images extracted")
	assert.Equal(t, "# merged", res.Content)

	assert.Equal(t, extract.MethodVision, res.Stats.TextMethod)
	assert.Equal(t, extract.MethodVision, res.Stats.TableMethod)
	assert.Equal(t, 0, res.Stats.TableCount)
	assert.Equal(t, len("# merged"), res.Stats.ContentLength)
	assert.NotEmpty(t, res.Stats.RunID)
	require.NotNil(t, res.Stats.TokenUsage)
	assert.Equal(t, 3, res.Stats.TokenUsage.APICalls)
	assert.Equal(t, 15, res.Stats.TokenUsage.TotalTokens)
}

func TestCompleteNativeTextSkipsVision(t *testing.T) {
	model := &scriptedModel{vision: func(string, int) (string, error) { return "No tables found", nil }}
	cfg := fullConfig()
	cfg.ExtractImages = false
	c := newConverter(model, staticLayer{words(150)}, &staticDetector{}, &pagesRasterizer{n: 1}, cfg)

	res, err := c.Run(context.Background(), "long.pdf")
	require.NoError(t, err)
	assert.Equal(t, 0, model.calls(extract.TextPrompt))
	assert.Equal(t, extract.MethodNative, res.Stats.TextMethod)
	assert.Contains(t, model.combined[0], words(150))
}

func TestLatticeTablesSkipVision(t *testing.T) {
	model := &scriptedModel{vision: func(string, int) (string, error) { return "desc", nil }}
	det := &staticDetector{tables: []document.Table{
		{Page: 2, Rows: [][]string{{"a", "b"}}},
		{Page: 1, Rows: [][]string{{"c", "d"}}},
		{Page: 2, Rows: [][]string{{"e", "f"}}},
	}}
	cfg := fullConfig()
	cfg.ExtractImages = false
	c := newConverter(model, staticLayer{words(120)}, det, &pagesRasterizer{n: 2}, cfg)

	res, err := c.Process("tables.pdf")
	require.NoError(t, err)

	assert.Equal(t, 0, model.calls(extract.TablePrompt))
	require.Len(t, res.Tables, 3)
	assert.Equal(t, []int{2, 1, 2}, []int{res.Tables[0].Page, res.Tables[1].Page, res.Tables[2].Page}, "detector order is kept")
	assert.Equal(t, []int{1, 2}, res.Stats.TablePages)
	assert.Contains(t, model.combined[0], "Table 1:\n| 0 | 1 |")
	assert.Contains(t, model.combined[0], "Table 3:\n")
	assert.Equal(t, extract.MethodLattice, res.Stats.TableMethod)
}

func TestInvalidPageSpecIsFatalBeforeAnyWork(t *testing.T) {
	model := &scriptedModel{vision: func(string, int) (string, error) { return "x", nil }}
	det := &staticDetector{}
	r := &pagesRasterizer{n: 1}
	cfg := fullConfig()
	cfg.TablePages = "3-1"
	c := newConverter(model, staticLayer{"x"}, det, r, cfg)
	resolved := false
	c.Resolve = func(string) (document.Source, error) {
		resolved = true
		return document.Source{Pages: 1}, nil
	}

	_, err := c.Process("doc.pdf")
	require.ErrorIs(t, err, common.ErrInvalidPageSpec)
	assert.False(t, resolved)
	assert.Zero(t, det.calls)
	assert.Zero(t, r.calls)
	assert.Empty(t, model.combined)
}

func TestUnreadableSourceIsFatal(t *testing.T) {
	model := &scriptedModel{vision: func(string, int) (string, error) { return "x", nil }}
	c := newConverter(model, staticLayer{"x"}, &staticDetector{}, &pagesRasterizer{n: 1}, fullConfig())
	c.Resolve = func(path string) (document.Source, error) {
		return document.Source{}, common.SourceUnreadable(path, errors.New("corrupt xref"))
	}

	_, err := c.Process("broken.pdf")
	require.ErrorIs(t, err, common.ErrSourceUnreadable)
	assert.Empty(t, model.combined)
}

func TestStageFailureIsIsolated(t *testing.T) {
	model := &scriptedModel{vision: func(prompt string, _ int) (string, error) {
		if prompt == extract.TablePrompt {
			return "", errors.New("vision quota exhausted")
		}
		return "a photo", nil
	}}
	det := &staticDetector{err: errors.New("no content stream")}
	m := metrics.New()
	c := newConverter(model, staticLayer{words(200)}, det, &pagesRasterizer{n: 2}, fullConfig())
	c.Metrics = m

	res, err := c.Process("doc.pdf")
	require.NoError(t, err)

	assert.Equal(t, []string{StageTables}, res.Stats.FailedStages)
	assert.Nil(t, res.Tables)
	assert.Empty(t, res.Stats.TableMethod)
	require.Len(t, res.Images, 2)
	assert.Contains(t, model.combined[0], "TABLES:\nNo tables extracted")
	assert.Contains(t, model.combined[0], "Image 2: a photo")
}

func TestCombineFailureIsFatal(t *testing.T) {
	model := &scriptedModel{
		vision:  func(string, int) (string, error) { return "No tables found", nil },
		combine: func(string) (string, error) { return "", errors.New("503") },
	}
	cfg := fullConfig()
	cfg.ExtractImages = false
	c := newConverter(model, staticLayer{words(200)}, &staticDetector{}, &pagesRasterizer{n: 1}, cfg)

	_, err := c.Process("doc.pdf")
	require.ErrorIs(t, err, common.ErrCombinationFailure)
}

func TestFallbacksShareOneRendering(t *testing.T) {
	model := &scriptedModel{vision: func(prompt string, _ int) (string, error) {
		if prompt == extract.TablePrompt {
			return "No tables found", nil
		}
		return "content", nil
	}}
	r := &pagesRasterizer{n: 3}
	c := newConverter(model, staticLayer{""}, &staticDetector{}, r, fullConfig())

	res, err := c.Process("scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, []int{1, 2, 3}, res.Stats.ImagePages)
	assert.Equal(t, 3, model.calls(extract.TextPrompt))
	assert.Equal(t, 3, model.calls(extract.ImagePrompt))
}

func TestConcurrentMatchesLinear(t *testing.T) {
	newModel := func() *scriptedModel {
		return &scriptedModel{vision: func(prompt string, page int) (string, error) {
			return fmt.Sprintf("%s/%d", prompt[:8], page), nil
		}}
	}
	det := func() *staticDetector {
		return &staticDetector{tables: []document.Table{{Page: 1, Rows: [][]string{{"x", "y"}, {"1", "2"}}}}}
	}

	linear := newConverter(newModel(), staticLayer{"short"}, det(), &pagesRasterizer{n: 2}, fullConfig())
	cfg := fullConfig()
	cfg.Concurrent = true
	concurrent := newConverter(newModel(), staticLayer{"short"}, det(), &pagesRasterizer{n: 2}, cfg)

	a, err := linear.Process("doc.pdf")
	require.NoError(t, err)
	b, err := concurrent.Process("doc.pdf")
	require.NoError(t, err)

	assert.Equal(t, a.Text, b.Text)
	assert.Equal(t, a.Tables, b.Tables)
	assert.Equal(t, a.Images, b.Images)
	assert.Empty(t, b.Stats.FailedStages)
}

func TestDeterministicStagesAreIdempotent(t *testing.T) {
	det := &staticDetector{tables: []document.Table{{Page: 1, Rows: [][]string{{"k", "v"}}}}}
	cfg := fullConfig()
	cfg.ExtractImages = false
	model := &scriptedModel{vision: func(string, int) (string, error) { return "unused", nil }}
	c := newConverter(model, staticLayer{words(100), words(20)}, det, &pagesRasterizer{n: 2}, cfg)

	first, err := c.Process("doc.pdf")
	require.NoError(t, err)
	second, err := c.Process("doc.pdf")
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Tables, second.Tables)
	assert.NotEqual(t, first.Stats.RunID, second.Stats.RunID)
}

func TestSavedImagesGoThroughSink(t *testing.T) {
	model := &scriptedModel{vision: func(string, int) (string, error) { return "No tables found", nil }}
	sink := &recordingSink{}
	cfg := fullConfig()
	cfg.SaveImages = true
	c := newConverter(model, staticLayer{words(100)}, &staticDetector{}, &pagesRasterizer{n: 2}, cfg)
	c.NewSink = func(document.Source) (extract.ImageSink, error) { return sink, nil }

	res, err := c.Process("doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"page_1_image_1.png", "page_2_image_2.png"}, sink.names)
	for i, img := range res.Images {
		assert.Nil(t, img.RawImage)
		assert.Equal(t, sink.names[i], img.StoredFilename)
	}
}

func TestDisabledStagesLeaveFieldsAbsent(t *testing.T) {
	model := &scriptedModel{vision: func(string, int) (string, error) { return "x", nil }}
	det := &staticDetector{}
	cfg := fullConfig()
	cfg.ExtractTables = false
	cfg.ExtractImages = false
	cfg.UseVisionFallback = false
	c := newConverter(model, staticLayer{"tiny"}, det, &pagesRasterizer{n: 1}, cfg)

	res, err := c.Process("doc.pdf")
	require.NoError(t, err)
	assert.Zero(t, det.calls)
	assert.Empty(t, model.visionCalls)
	assert.Equal(t, "tiny\n\n", res.Text)
	require.NotNil(t, res.Stats.TokenUsage)
	assert.Equal(t, 1, res.Stats.TokenUsage.APICalls, "only the merge call")
}
