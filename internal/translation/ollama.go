package translation

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const ollamaDefaultHost = "http://localhost:11434"

type ollamaProvider struct {
	host     string
	settings Settings
	http     *httpClient
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         chatMessage `json:"message"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func newOllama(s Settings) (*ollamaProvider, error) {
	if err := s.check(false); err != nil {
		return nil, err
	}
	host := s.APIBase
	if host == "" {
		host = ollamaDefaultHost
	}
	return &ollamaProvider{host: strings.TrimRight(host, "/"), settings: s, http: s.client()}, nil
}

func (p *ollamaProvider) Name() string { return "ollama" }

func (p *ollamaProvider) ListModels(ctx context.Context) ([]string, error) {
	var tags ollamaTags
	if err := p.http.doJSON(ctx, http.MethodGet, p.host+"/api/tags", nil, nil, &tags); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	models := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

func (p *ollamaProvider) options() map[string]any {
	s := p.settings
	opts := map[string]any{}
	if s.Temperature != nil {
		opts["temperature"] = *s.Temperature
	}
	if s.MaxTokens > 0 {
		opts["num_predict"] = s.MaxTokens
	}
	if s.NumCtx > 0 {
		opts["num_ctx"] = s.NumCtx
	}
	if s.TopP != nil {
		opts["top_p"] = *s.TopP
	}
	if s.TopK > 0 {
		opts["top_k"] = s.TopK
	}
	if s.RepeatPenalty != nil {
		opts["repeat_penalty"] = *s.RepeatPenalty
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

func (p *ollamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	req := ollamaChatRequest{
		Model: p.settings.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: prompt},
		},
		Options: p.options(),
	}
	var resp ollamaChatResponse
	if err := p.http.doJSON(ctx, http.MethodPost, p.host+"/api/chat", nil, req, &resp); err != nil {
		return "", err
	}
	log.Debug().
		Int("prompt_tokens", resp.PromptEvalCount).
		Int("output_tokens", resp.EvalCount).
		Msg("Completion finished")
	return strings.TrimSpace(resp.Message.Content), nil
}
