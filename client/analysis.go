package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"videolens/config"
	"videolens/types"
)

// AnalysisRequest describes an analysis submission. Exactly one of
// FileID and S3URI is set; Prompts applies to basic mode and Prompt to
// professional mode.
type AnalysisRequest struct {
	Mode    types.AnalysisMode
	FileID  string
	S3URI   string
	Prompts []string
	Prompt  string
}

type analyzePayload struct {
	FileID  string   `json:"fileId,omitempty"`
	S3URI   string   `json:"s3Uri,omitempty"`
	Prompts []string `json:"prompts,omitempty"`
	Prompt  string   `json:"prompt,omitempty"`
}

// SubmitAnalysis starts an analysis job and returns its id.
func (c *Client) SubmitAnalysis(ctx context.Context, req AnalysisRequest) (string, error) {
	path := "/api/analyze/basic"
	if req.Mode == types.ModeProfessional {
		path = "/api/analyze/professional"
	}

	var out struct {
		AnalysisID string `json:"analysisId"`
	}
	payload := analyzePayload{FileID: req.FileID, S3URI: req.S3URI, Prompts: req.Prompts, Prompt: req.Prompt}
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &out); err != nil {
		return "", err
	}
	return out.AnalysisID, nil
}

// URIInfo is the relay's record of a validated S3 reference.
type URIInfo struct {
	URIID            string  `json:"uriId"`
	S3URI            string  `json:"s3Uri"`
	SizeMB           float64 `json:"size_mb"`
	ProcessingMethod string  `json:"processing_method"`
}

// ValidateS3URI asks the relay to check an S3 reference for format and
// accessibility, registering it for a later SubmitAnalysis.
func (c *Client) ValidateS3URI(ctx context.Context, uri string) (*URIInfo, error) {
	var info URIInfo
	payload := map[string]string{"s3Uri": uri}
	if err := c.doJSON(ctx, http.MethodPost, "/api/validate-s3-uri", payload, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// EncodingProgress polls the relay for re-encode progress. A cleared or
// never-registered entry comes back as an *APIError.
func (c *Client) EncodingProgress(ctx context.Context, fileID string) (*types.Progress, error) {
	var p types.Progress
	if err := c.doJSON(ctx, http.MethodGet, "/api/encoding-progress/"+fileID, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FileStatus reports where an upload stands in its encode lifecycle.
type FileStatus struct {
	FileID            string  `json:"file_id"`
	Filename          string  `json:"filename"`
	OriginalSizeMB    float64 `json:"original_size_mb"`
	EncodedSizeMB     float64 `json:"encoded_size_mb"`
	FinalSizeMB       float64 `json:"final_size_mb"`
	NeedsEncoding     bool    `json:"needs_encoding"`
	EncodingCompleted bool    `json:"encoding_completed"`
	ProcessingMethod  string  `json:"processing_method"`
	FinalFileExists   bool    `json:"final_file_exists"`
	ReadyForAnalysis  bool    `json:"ready_for_analysis"`
}

func (c *Client) GetFileStatus(ctx context.Context, fileID string) (*FileStatus, error) {
	var st FileStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/files/"+fileID+"/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// AnalysisStatus polls a job. Running jobs come back as a stub with a
// non-terminal status; finished jobs carry the full result.
func (c *Client) AnalysisStatus(ctx context.Context, analysisID string) (*types.AnalysisResult, error) {
	var res types.AnalysisResult
	if err := c.doJSON(ctx, http.MethodGet, "/api/analysis/"+analysisID+"/status", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AnalysisResult fetches a completed result.
func (c *Client) AnalysisResult(ctx context.Context, analysisID string) (*types.AnalysisResult, error) {
	var res types.AnalysisResult
	if err := c.doJSON(ctx, http.MethodGet, "/api/analysis/"+analysisID+"/result", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListResults returns stored results, newest first.
func (c *Client) ListResults(ctx context.Context) ([]types.AnalysisResult, error) {
	var results []types.AnalysisResult
	if err := c.doJSON(ctx, http.MethodGet, "/api/results", nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) DeleteResult(ctx context.Context, analysisID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/results/"+analysisID, nil, nil)
}

// DownloadResult writes the pretty-printed JSON export of a result to w.
func (c *Client) DownloadResult(ctx context.Context, analysisID string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/results/"+analysisID+"/download", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeEnvelope(resp, nil)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// GetConfig fetches the relay's live configuration.
func (c *Client) GetConfig(ctx context.Context) (*config.AppConfig, error) {
	var cfg config.AppConfig
	if err := c.doJSON(ctx, http.MethodGet, "/api/config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateConfig merges a partial update into the relay's configuration.
func (c *Client) UpdateConfig(ctx context.Context, update config.Update) (*config.AppConfig, error) {
	var cfg config.AppConfig
	if err := c.doJSON(ctx, http.MethodPut, "/api/config", update, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Health reports whether the relay answers its health check.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
