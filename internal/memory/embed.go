// Package memory keeps approved translations as embeddings in pgvector and
// looks up the closest ones for new strings.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// maxInputsPerRequest caps the inputs of one embeddings call. Longer slices
// are sent in several requests.
const maxInputsPerRequest = 64

// EmbeddingClient turns strings into vectors through an OpenAI-compatible
// /embeddings endpoint. Every vector must have the configured width, which
// is also the width of the translation_memory column.
type EmbeddingClient struct {
	endpoint   string
	apiKey     string
	model      string
	dimensions int
	http       *http.Client
}

// NewEmbeddingClient creates a client. baseURL is the API root, for example
// https://api.openai.com/v1.
func NewEmbeddingClient(apiKey, model, baseURL string, dimensions int) *EmbeddingClient {
	if dimensions <= 0 {
		dimensions = 1024
	}
	return &EmbeddingClient{
		endpoint:   strings.TrimRight(baseURL, "/") + "/embeddings",
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		http:       &http.Client{Timeout: 60 * time.Second},
	}
}

// Dimensions returns the vector width requested from the API.
func (ec *EmbeddingClient) Dimensions() int { return ec.dimensions }

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed returns one vector per text, in input order. A text the API did
// not answer for gets a nil vector.
func (ec *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxInputsPerRequest {
		chunk := texts[start:min(start+maxInputsPerRequest, len(texts))]
		vecs, err := ec.embedChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (ec *EmbeddingClient) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Input: texts, Model: ec.model, Dimensions: ec.dimensions})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ec.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ec.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+ec.apiKey)
	}

	resp, err := ec.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded embeddingResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	vecs := make([][]float32, len(texts))
	for _, d := range decoded.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			continue
		}
		if len(d.Embedding) != ec.dimensions {
			return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(d.Embedding), ec.dimensions)
		}
		vecs[d.Index] = d.Embedding
	}

	log.Debug().Int("texts", len(texts)).Int("tokens", decoded.Usage.TotalTokens).Msg("Generated embeddings")
	return vecs, nil
}
