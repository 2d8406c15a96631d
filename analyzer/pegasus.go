package analyzer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// MediaInput is the tagged video payload for a Pegasus call: inline
// base64 for small files, an S3 location for everything else.
type MediaInput struct {
	FilePath    string
	S3URI       string
	BucketOwner string
}

type s3Location struct {
	URI         string `json:"uri"`
	BucketOwner string `json:"bucketOwner,omitempty"`
}

type mediaSource struct {
	Base64String string      `json:"base64String,omitempty"`
	S3Location   *s3Location `json:"s3Location,omitempty"`
}

type pegasusRequest struct {
	InputPrompt     string      `json:"inputPrompt"`
	MediaSource     mediaSource `json:"mediaSource"`
	Temperature     float64     `json:"temperature"`
	MaxOutputTokens int         `json:"maxOutputTokens"`
}

type pegasusResponse struct {
	Message      string `json:"message"`
	FinishReason string `json:"finishReason"`
}

// Pegasus invokes the TwelveLabs Pegasus video-understanding model
// through Bedrock.
type Pegasus struct {
	runtime *bedrockruntime.Client
}

// NewPegasus wraps a Bedrock runtime client.
func NewPegasus(runtime *bedrockruntime.Client) *Pegasus {
	return &Pegasus{runtime: runtime}
}

// Describe runs one prompt against the video and returns the model's
// free-text answer.
func (p *Pegasus) Describe(ctx context.Context, modelID string, media MediaInput, prompt string) (string, error) {
	req := pegasusRequest{
		InputPrompt:     prompt,
		Temperature:     0.2,
		MaxOutputTokens: 4096,
	}

	switch {
	case media.S3URI != "":
		req.MediaSource.S3Location = &s3Location{URI: media.S3URI, BucketOwner: media.BucketOwner}
	case media.FilePath != "":
		raw, err := os.ReadFile(media.FilePath)
		if err != nil {
			return "", fmt.Errorf("read video file: %w", err)
		}
		req.MediaSource.Base64String = base64.StdEncoding.EncodeToString(raw)
	default:
		return "", fmt.Errorf("media input has neither file path nor S3 URI")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	out, err := p.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("pegasus invoke failed: %w", err)
	}

	var resp pegasusResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("parse pegasus response: %w", err)
	}
	return resp.Message, nil
}
