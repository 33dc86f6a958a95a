package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrUnknownProvider is returned by NewProvider for unsupported names.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrMissingModel is returned when a provider needs a model name.
	ErrMissingModel = errors.New("model required (--model)")
	// ErrMissingAPIKey is returned when a hosted provider has no API key.
	ErrMissingAPIKey = errors.New("API key required (--api-key)")
	// ErrMissingAPIBase is returned when a compatible endpoint has no base URL.
	ErrMissingAPIBase = errors.New("API base URL required (--api-base)")
)

// Provider sends a prompt to a language model and returns its reply.
type Provider interface {
	Name() string
	ListModels(ctx context.Context) ([]string, error)
	Complete(ctx context.Context, prompt string) (string, error)
}

// Settings configures a provider. Optional generation parameters are left
// out of the request when unset.
type Settings struct {
	Model         string
	APIKey        string
	APIBase       string
	Organization  string
	Temperature   *float64
	MaxTokens     int
	TopP          *float64
	TopK          int
	NumCtx        int
	RepeatPenalty *float64

	// ListOnly relaxes the model and key checks for list-models.
	ListOnly bool

	HTTPClient *http.Client
}

// Providers lists the names accepted by NewProvider.
var Providers = []string{"openai", "anthropic", "gemini", "openai-compat", "anthropic-compat", "ollama"}

// NewProvider builds the named provider.
func NewProvider(ctx context.Context, name string, s Settings) (Provider, error) {
	switch strings.ToLower(name) {
	case "openai":
		return newOpenAI(s, false)
	case "openai-compat":
		return newOpenAI(s, true)
	case "anthropic", "claude":
		return newAnthropic(s, false)
	case "anthropic-compat":
		return newAnthropic(s, true)
	case "gemini":
		return newGemini(ctx, s)
	case "ollama":
		return newOllama(s)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownProvider, name, strings.Join(Providers, ", "))
	}
}

func (s Settings) check(needKey bool) error {
	if s.ListOnly {
		return nil
	}
	if s.Model == "" {
		return ErrMissingModel
	}
	if needKey && s.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (s Settings) client() *httpClient {
	c := s.HTTPClient
	if c == nil {
		c = &http.Client{Timeout: 300 * time.Second}
	}
	return &httpClient{client: c, attempts: 3, backoff: 2 * time.Second}
}
