package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

const openAIBaseURL = "https://api.openai.com/v1"

// openAIProvider talks to the Chat Completions API. In compat mode it targets
// any server exposing the same API, such as vLLM or LM Studio.
type openAIProvider struct {
	name     string
	base     string
	settings Settings
	http     *httpClient
	compat   bool
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
}

type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func newOpenAI(s Settings, compat bool) (*openAIProvider, error) {
	p := &openAIProvider{name: "openai", base: openAIBaseURL, settings: s, http: s.client(), compat: compat}
	if compat {
		p.name = "openai-compat"
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
	return p, nil
}

func (p *openAIProvider) Name() string { return p.name }

func (p *openAIProvider) headers() map[string]string {
	h := map[string]string{}
	if p.settings.APIKey != "" {
		h["Authorization"] = "Bearer " + p.settings.APIKey
	}
	if p.settings.Organization != "" {
		h["OpenAI-Organization"] = p.settings.Organization
	}
	return h
}

// ListModels returns GPT models for openai and every model for compatible
// servers. Compatible servers without a model listing yield an empty list.
func (p *openAIProvider) ListModels(ctx context.Context) ([]string, error) {
	var resp modelList
	if err := p.http.doJSON(ctx, http.MethodGet, p.base+"/models", p.headers(), nil, &resp); err != nil {
		var apiErr *APIError
		if p.compat && errors.As(err, &apiErr) {
			log.Warn().Err(err).Msg("Endpoint does not support model listing")
			return nil, nil
		}
		return nil, fmt.Errorf("list models: %w", err)
	}
	var models []string
	for _, m := range resp.Data {
		if p.compat || strings.Contains(strings.ToLower(m.ID), "gpt") {
			models = append(models, m.ID)
		}
	}
	sort.Strings(models)
	return models, nil
}

func (p *openAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model: p.settings.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: prompt},
		},
		Temperature: p.settings.Temperature,
		MaxTokens:   p.settings.MaxTokens,
	}
	var resp chatResponse
	if err := p.http.doJSON(ctx, http.MethodPost, p.base+"/chat/completions", p.headers(), req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response: no choices")
	}
	if resp.Usage != nil {
		log.Debug().
			Int("prompt_tokens", resp.Usage.PromptTokens).
			Int("output_tokens", resp.Usage.CompletionTokens).
			Msg("Completion finished")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
