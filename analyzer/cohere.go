package analyzer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// Cohere structures analysis text with a Cohere chat model. Selected by
// setting STRUCTURER_PROVIDER=cohere; needs COHERE_API_KEY.
type Cohere struct {
	client *cohereclient.Client
	model  string
}

// NewCohere creates a Cohere-backed Structurer.
func NewCohere(apiKey, model string) *Cohere {
	if model == "" {
		model = "command-r-plus-08-2024"
	}
	// Force HTTP/1.1 to avoid HTTP/2 protocol errors against the Cohere API.
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &Cohere{client: client, model: model}
}

func (c *Cohere) Structure(ctx context.Context, description string) (map[string]any, error) {
	temperature := 0.1
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message:     structuringPrompt(description),
		Model:       &c.model,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil || resp.Text == "" {
		return nil, errors.New("cohere chat returned empty response")
	}
	return extractStructured(resp.Text), nil
}
