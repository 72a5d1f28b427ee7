package ai

import (
	"context"
	"sync"
)

// TokenUsage accumulates usage over every call made through a Meter.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	APICalls         int `json:"api_calls"`
}

// Meter wraps a Model and counts calls and tokens. Safe for concurrent use.
type Meter struct {
	next Model

	// OnCall, when set, observes every call after it returns.
	OnCall func(u Usage, err error)

	mu       sync.Mutex
	usage    TokenUsage
	reported bool
}

func NewMeter(next Model) *Meter {
	return &Meter{next: next}
}

func (m *Meter) Complete(ctx context.Context, system, prompt string) (Response, error) {
	res, err := m.next.Complete(ctx, system, prompt)
	m.record(res.Usage, err)
	return res, err
}

func (m *Meter) Describe(ctx context.Context, prompt string, img Image) (Response, error) {
	res, err := m.next.Describe(ctx, prompt, img)
	m.record(res.Usage, err)
	return res, err
}

func (m *Meter) record(u Usage, err error) {
	m.mu.Lock()
	m.usage.APICalls++
	m.usage.PromptTokens += u.PromptTokens
	m.usage.CompletionTokens += u.CompletionTokens
	m.usage.TotalTokens += u.TotalTokens
	if u != (Usage{}) {
		m.reported = true
	}
	m.mu.Unlock()

	if m.OnCall != nil {
		m.OnCall(u, err)
	}
}

// Usage returns the totals so far. ok is false until some call has
// reported token counts.
func (m *Meter) Usage() (u TokenUsage, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage, m.reported
}
