package ai

import "context"

// Image is an inline image handed to a vision-capable model.
type Image struct {
	MIMEType string
	Data     []byte
}

// Usage holds the token counters a provider reported for one call.
// Zero values mean the provider did not report them.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Response struct {
	Text  string
	Usage Usage
}

// Model is the model-invocation capability used by the pipeline. Both
// shapes block until the provider answers and may fail with any error.
type Model interface {
	Complete(ctx context.Context, system, prompt string) (Response, error)
	Describe(ctx context.Context, prompt string, img Image) (Response, error)
}
