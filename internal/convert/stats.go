package convert

import (
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/thywilljoshua/pdf-extract/internal/ai"
	"github.com/thywilljoshua/pdf-extract/internal/extract"
)

// Stats summarises one run.
type Stats struct {
	RunID         string         `json:"run_id"`
	Model         string         `json:"model,omitempty"`
	TableCount    int            `json:"table_count"`
	ImageCount    int            `json:"image_count"`
	ContentLength int            `json:"content_length"`
	TotalTime     float64        `json:"total_time"`
	TokenUsage    *ai.TokenUsage `json:"token_usage,omitempty"`
	TextMethod    string         `json:"text_method,omitempty"`
	TableMethod   string         `json:"table_method,omitempty"`
	TablePages    []int          `json:"table_pages"`
	ImagePages    []int          `json:"image_pages"`
	FailedStages  []string       `json:"failed_stages,omitempty"`
}

// stageLog collects per-stage outcomes; stages may report concurrently.
type stageLog struct {
	mu      sync.Mutex
	methods map[string]string
	failed  []string
}

func (l *stageLog) succeeded(stage, method string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.methods == nil {
		l.methods = map[string]string{}
	}
	l.methods[stage] = method
}

func (l *stageLog) failedStage(stage string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failed = append(l.failed, stage)
}

func buildStats(runID, model string, st State, log *stageLog, meter *ai.Meter, elapsed time.Duration) Stats {
	tables := st.Tables.Value()
	images := st.Images.Value()

	s := Stats{
		RunID:         runID,
		Model:         model,
		TableCount:    len(tables),
		ImageCount:    len(images),
		ContentLength: utf8.RuneCountInString(st.FinalContent.Value()),
		TotalTime:     elapsed.Seconds(),
		TextMethod:    log.methods[StageText],
		TableMethod:   log.methods[StageTables],
		TablePages:    tablePages(tables),
		ImagePages:    imagePages(images),
	}
	if len(log.failed) > 0 {
		s.FailedStages = append([]string(nil), log.failed...)
		sort.Strings(s.FailedStages)
	}
	if u, ok := meter.Usage(); ok {
		s.TokenUsage = &u
	}
	return s
}

func tablePages(ts []extract.TableRecord) []int {
	pages := make([]int, 0, len(ts))
	for _, t := range ts {
		pages = append(pages, t.Page)
	}
	return uniqueSorted(pages)
}

func imagePages(is []extract.ImageRecord) []int {
	pages := make([]int, 0, len(is))
	for _, i := range is {
		pages = append(pages, i.Page)
	}
	return uniqueSorted(pages)
}

func uniqueSorted(in []int) []int {
	sort.Ints(in)
	out := in[:0]
	for _, v := range in {
		if len(out) == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
