package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	anthropicBaseURL          = "https://api.anthropic.com"
	anthropicVersion          = "2023-06-01"
	anthropicDefaultMaxTokens = 4096
)

type anthropicProvider struct {
	name     string
	base     string
	settings Settings
	http     *httpClient
	compat   bool
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

func newAnthropic(s Settings, compat bool) (*anthropicProvider, error) {
	p := &anthropicProvider{name: "anthropic", base: anthropicBaseURL, settings: s, http: s.client(), compat: compat}
	if compat {
		p.name = "anthropic-compat"
		if s.APIBase == "" {
			return nil, ErrMissingAPIBase
		}
		if err := s.check(false); err != nil {
			return nil, err
		}
	} else if err := s.check(true); err != nil {
		return nil, err
	}
	if s.APIBase != "" {
		p.base = strings.TrimRight(s.APIBase, "/")
	}
	if p.settings.MaxTokens <= 0 {
		p.settings.MaxTokens = anthropicDefaultMaxTokens
	}
	return p, nil
}

func (p *anthropicProvider) Name() string { return p.name }

func (p *anthropicProvider) headers() map[string]string {
	h := map[string]string{"anthropic-version": anthropicVersion}
	if p.settings.APIKey != "" {
		h["x-api-key"] = p.settings.APIKey
	}
	return h
}

func (p *anthropicProvider) ListModels(ctx context.Context) ([]string, error) {
	var resp modelList
	if err := p.http.doJSON(ctx, http.MethodGet, p.base+"/v1/models", p.headers(), nil, &resp); err != nil {
		var apiErr *APIError
		if p.compat && errors.As(err, &apiErr) {
			log.Warn().Err(err).Msg("Endpoint does not support model listing")
			return nil, nil
		}
		return nil, fmt.Errorf("list models: %w", err)
	}
	models := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// Complete returns the first text block of the reply. Thinking blocks are
// skipped.
func (p *anthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	req := messagesRequest{
		Model:       p.settings.Model,
		MaxTokens:   p.settings.MaxTokens,
		System:      systemMessage,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: p.settings.Temperature,
	}
	var resp messagesResponse
	if err := p.http.doJSON(ctx, http.MethodPost, p.base+"/v1/messages", p.headers(), req, &resp); err != nil {
		return "", err
	}
	if resp.Usage != nil {
		log.Debug().
			Int("prompt_tokens", resp.Usage.InputTokens).
			Int("output_tokens", resp.Usage.OutputTokens).
			Msg("Completion finished")
	}
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("empty response: no text content")
}
