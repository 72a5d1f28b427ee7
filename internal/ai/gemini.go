package ai

import (
	"context"
	"errors"
	"fmt"

	genai "google.golang.org/genai"
)

type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGemini(ctx context.Context, apiKey, model string, temperature float64) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: c, model: model, temperature: float32(temperature)}, nil
}

func (g *Gemini) Complete(ctx context.Context, system, prompt string) (Response, error) {
	cfg := g.config()
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return g.generate(ctx, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, cfg)
}

func (g *Gemini) Describe(ctx context.Context, prompt string, img Image) (Response, error) {
	mt := img.MIMEType
	if mt == "" {
		mt = "image/png"
	}
	content := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mt, Data: img.Data}},
		},
	}
	return g.generate(ctx, []*genai.Content{content}, g.config())
}

func (g *Gemini) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)}
}

func (g *Gemini) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (Response, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return Response{}, fmt.Errorf("gemini API call failed: %w", err)
	}
	out := Response{Text: res.Text()}
	if u := res.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}
