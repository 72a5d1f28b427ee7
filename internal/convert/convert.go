package convert

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thywilljoshua/pdf-extract/internal/ai"
	"github.com/thywilljoshua/pdf-extract/internal/common"
	"github.com/thywilljoshua/pdf-extract/internal/document"
	"github.com/thywilljoshua/pdf-extract/internal/extract"
	"github.com/thywilljoshua/pdf-extract/internal/metrics"
)

// Stage names, as logged and reported in Stats.FailedStages.
const (
	StageText    = "text"
	StageTables  = "tables"
	StageImages  = "images"
	StageCombine = "combine"
)

// Converter runs the pipeline: text, tables and images, then combine.
// It holds no per-run state and is safe for concurrent use.
type Converter struct {
	Model      ai.Model
	TextLayer  extract.TextLayer
	Rasterizer extract.Rasterizer
	Detector   extract.TableDetector
	// NewSink returns where page images go for src. Only consulted when
	// Config.SaveImages is set.
	NewSink func(src document.Source) (extract.ImageSink, error)
	// Resolve validates the input path; defaults to document.Open.
	Resolve func(path string) (document.Source, error)

	Config  Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Process is the blocking entry point for callers without a context.
func (c *Converter) Process(path string) (Result, error) {
	return c.Run(context.Background(), path)
}

// Run converts the document at path. Errors are fatal only when the source
// is unreadable, the page selector is malformed, or the final merge
// fails. A failing extraction stage is logged, its field stays absent and
// it is listed in Stats.FailedStages.
func (c *Converter) Run(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := common.OrNop(c.Logger).With(zap.String("run_id", runID), zap.String("source", path))
	defer c.Metrics.RunStarted()()

	sel, err := extract.ParsePageSpec(c.Config.TablePages)
	if err != nil {
		log.Error("convert.page_spec.invalid", zap.Error(err), zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return Result{}, err
	}
	resolve := c.Resolve
	if resolve == nil {
		resolve = document.Open
	}
	src, err := resolve(path)
	if err != nil {
		log.Error("convert.source.unreadable", zap.Error(err), zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return Result{}, err
	}
	log.Info("convert.start", zap.Int("pages", src.Pages), zap.Bool("concurrent", c.Config.Concurrent))

	meter := ai.NewMeter(c.Model)
	meter.OnCall = c.Metrics.ObserveModelCall
	r := &run{
		c:     c,
		src:   src,
		sel:   sel,
		meter: meter,
		pages: extract.NewPageCache(c.Rasterizer, src.Path),
		log:   log,
		start: start,
	}

	state, err := r.extract(ctx, newState(src))
	if err != nil {
		return Result{}, err
	}

	combineStart := time.Now()
	content, err := Combiner{Model: meter}.Combine(ctx, state)
	if err != nil {
		c.Metrics.ObserveStage(StageCombine, "error", time.Since(combineStart))
		log.Error("convert.combine.failed", zap.Error(err), zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return Result{}, err
	}
	c.Metrics.ObserveStage(StageCombine, "ok", time.Since(combineStart))
	if state, err = state.merge(State{FinalContent: Set(content)}); err != nil {
		return Result{}, err
	}

	stats := buildStats(runID, c.Config.ModelIdentifier, state, &r.stages, meter, time.Since(start))
	log.Info("convert.done",
		zap.Int("tables", stats.TableCount),
		zap.Int("images", stats.ImageCount),
		zap.Int("content_length", stats.ContentLength),
		zap.Strings("failed_stages", stats.FailedStages),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return Result{
		Content: content,
		Text:    state.Text.Value(),
		Tables:  state.Tables.Value(),
		Images:  state.Images.Value(),
		Stats:   stats,
	}, nil
}

// run is the state of one Converter.Run.
type run struct {
	c      *Converter
	src    document.Source
	sel    extract.PageSelector
	meter  *ai.Meter
	pages  *extract.PageCache
	log    *zap.Logger
	start  time.Time
	stages stageLog
}

type stage struct {
	name string
	fn   func(ctx context.Context) (State, string, error)
}

func (r *run) plan() []stage {
	cfg := r.c.Config
	out := []stage{{name: StageText, fn: r.text}}
	if cfg.ExtractTables {
		out = append(out, stage{name: StageTables, fn: r.tables})
	}
	if cfg.ExtractImages {
		out = append(out, stage{name: StageImages, fn: r.images})
	}
	return out
}

// extract runs the extraction stages in order, or all at once when
// configured. The stages never read each other's output, so both modes
// produce the same state.
func (r *run) extract(ctx context.Context, st State) (State, error) {
	stages := r.plan()
	deltas := make([]State, len(stages))

	if r.c.Config.Concurrent {
		var g errgroup.Group
		for i, s := range stages {
			g.Go(func() error {
				deltas[i] = r.runStage(ctx, s)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, s := range stages {
			deltas[i] = r.runStage(ctx, s)
		}
	}

	for _, d := range deltas {
		var err error
		if st, err = st.merge(d); err != nil {
			return st, err
		}
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}
	return st, nil
}

func (r *run) runStage(ctx context.Context, s stage) State {
	start := time.Now()
	delta, method, err := s.fn(ctx)
	if err != nil {
		err = common.StageFailure(s.name, err)
		r.c.Metrics.ObserveStage(s.name, "error", time.Since(start))
		r.log.Warn("convert.stage.failed",
			zap.String("stage", s.name),
			zap.Error(err),
			zap.Int64("elapsed_ms", time.Since(r.start).Milliseconds()))
		r.stages.failedStage(s.name)
		return State{}
	}
	r.c.Metrics.ObserveStage(s.name, "ok", time.Since(start))
	if method == extract.MethodVision {
		r.c.Metrics.Escalated(s.name)
	}
	r.stages.succeeded(s.name, method)
	r.log.Info("convert.stage.done",
		zap.String("stage", s.name),
		zap.String("method", method),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return delta
}

func (r *run) vision() *extract.Vision {
	return extract.NewVision(r.meter, r.log)
}

func (r *run) text(ctx context.Context) (State, string, error) {
	e := &extract.TextExtractor{
		Layer:        r.c.TextLayer,
		Vision:       r.vision(),
		Pages:        r.pages,
		Completeness: extract.Completeness{MinTokens: r.c.Config.MinTextTokens},
		UseVision:    r.c.Config.UseVisionFallback,
		Logger:       r.log,
	}
	res, err := e.Extract(ctx, r.src.Path)
	if err != nil {
		return State{}, "", err
	}
	return State{Text: Set(res.Text)}, res.Method, nil
}

func (r *run) tables(ctx context.Context) (State, string, error) {
	e := &extract.TableExtractor{
		Detector: r.c.Detector,
		Vision:   r.vision(),
		Pages:    r.pages,
		Logger:   r.log,
	}
	res, err := e.Extract(ctx, r.src, r.sel)
	if err != nil {
		return State{}, "", err
	}
	return State{Tables: Set(res.Tables)}, res.Method, nil
}

func (r *run) images(ctx context.Context) (State, string, error) {
	e := &extract.ImageExtractor{
		Vision: r.vision(),
		Pages:  r.pages,
		Logger: r.log,
	}
	if r.c.Config.SaveImages && r.c.NewSink != nil {
		sink, err := r.c.NewSink(r.src)
		if err != nil {
			return State{}, "", err
		}
		e.Sink = sink
	}
	recs, err := e.Extract(ctx)
	if err != nil {
		return State{}, "", err
	}
	return State{Images: Set(recs)}, "", nil
}
