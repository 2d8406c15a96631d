package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// BedrockClaude structures analysis text with an Anthropic model on
// Bedrock. It is the default Structurer.
type BedrockClaude struct {
	runtime *bedrockruntime.Client
	modelID func() string
}

// NewBedrockClaude wraps a Bedrock runtime client. modelID is resolved
// per call so config updates take effect without a restart.
func NewBedrockClaude(runtime *bedrockruntime.Client, modelID func() string) *BedrockClaude {
	return &BedrockClaude{runtime: runtime, modelID: modelID}
}

func (c *BedrockClaude) Structure(ctx context.Context, description string) (map[string]any, error) {
	body, err := json.Marshal(claudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4096,
		Temperature:      0.1,
		Messages:         []claudeMessage{{Role: "user", Content: structuringPrompt(description)}},
	})
	if err != nil {
		return nil, err
	}

	out, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID()),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("claude invoke failed: %w", err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("parse claude response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("claude returned empty content")
	}
	return extractStructured(resp.Content[0].Text), nil
}
