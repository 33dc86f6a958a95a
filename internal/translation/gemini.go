package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	genai "google.golang.org/genai"
)

// geminiProvider is a thin wrapper around the official genai client.
type geminiProvider struct {
	cli      *genai.Client
	settings Settings
}

func newGemini(ctx context.Context, s Settings) (*geminiProvider, error) {
	if err := s.check(true); err != nil {
		return nil, err
	}
	cfg := &genai.ClientConfig{APIKey: s.APIKey, Backend: genai.BackendGeminiAPI, HTTPClient: s.HTTPClient}
	if s.APIBase != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.APIBase}
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiProvider{cli: cli, settings: s}, nil
}

func (g *geminiProvider) Name() string { return "gemini" }

// ListModels returns the models that support generateContent, without the
// "models/" prefix.
func (g *geminiProvider) ListModels(ctx context.Context) ([]string, error) {
	var models []string
	for m, err := range g.cli.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		for _, action := range m.SupportedActions {
			if action == "generateContent" {
				models = append(models, strings.TrimPrefix(m.Name, "models/"))
				break
			}
		}
	}
	return models, nil
}

func (g *geminiProvider) config() *genai.GenerateContentConfig {
	s := g.settings
	if s.Temperature == nil && s.TopP == nil && s.TopK == 0 && s.MaxTokens == 0 {
		return nil
	}
	cfg := &genai.GenerateContentConfig{}
	if s.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*s.Temperature))
	}
	if s.TopP != nil {
		cfg.TopP = genai.Ptr(float32(*s.TopP))
	}
	if s.TopK > 0 {
		cfg.TopK = genai.Ptr(float32(s.TopK))
	}
	if s.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(s.MaxTokens)
	}
	return cfg
}

func (g *geminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.settings.Model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		g.config(),
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response: no candidates")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	if resp.UsageMetadata != nil {
		log.Debug().
			Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount).
			Int32("output_tokens", resp.UsageMetadata.CandidatesTokenCount).
			Msg("Completion finished")
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("empty response: no text")
	}
	return text, nil
}
