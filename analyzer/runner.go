package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"videolens/config"
	"videolens/events"
	"videolens/storage"
	"videolens/store"
	"videolens/types"
)

// SourceType discriminates where the video bytes live.
type SourceType string

const (
	SourceFile  SourceType = "file"
	SourceS3URI SourceType = "s3uri"
)

// Source is the resolved video input for one analysis job.
type Source struct {
	Type        SourceType
	Path        string
	S3URI       string
	BucketOwner string
	Filename    string
}

// Runner executes analysis jobs in the background and records their
// status and results in the store.
type Runner struct {
	cfg        *config.Config
	pegasus    *Pegasus
	structurer Structurer
	storage    *storage.S3
	store      store.Store
	events     events.Publisher
	logger     *slog.Logger
}

// NewRunner wires the analysis pipeline together.
func NewRunner(cfg *config.Config, pegasus *Pegasus, structurer Structurer, s3 *storage.S3, st store.Store, pub events.Publisher, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		pegasus:    pegasus,
		structurer: structurer,
		storage:    s3,
		store:      st,
		events:     pub,
		logger:     logger,
	}
}

// StartBasic launches a basic-mode job (three prompts) and returns its id.
func (r *Runner) StartBasic(src Source, prompts []string) string {
	id := uuid.NewString()
	r.begin(id, src, types.ModeBasic)
	go r.runBasic(context.Background(), id, src, prompts)
	return id
}

// StartProfessional launches a professional-mode job and returns its id.
func (r *Runner) StartProfessional(src Source, prompt string) string {
	id := uuid.NewString()
	r.begin(id, src, types.ModeProfessional)
	go r.runProfessional(context.Background(), id, src, prompt)
	return id
}

func (r *Runner) begin(id string, src Source, mode types.AnalysisMode) {
	if err := r.store.SetStatus(context.Background(), id, types.StatusPending); err != nil {
		r.logger.Error("set pending status", "analysis_id", id, "error", err)
	}
	r.events.Publish(events.Event{
		Type:       "analysis.started",
		AnalysisID: id,
		Filename:   src.Filename,
		Mode:       mode,
	})
}

func (r *Runner) runBasic(ctx context.Context, id string, src Source, prompts []string) {
	r.setStatus(ctx, id, types.StatusAnalyzing)

	if r.pegasus == nil {
		r.fail(ctx, id, src, types.ModeBasic, fmt.Errorf("bedrock runtime is not configured"))
		return
	}

	media, err := r.resolveMedia(ctx, id, src)
	if err != nil {
		r.fail(ctx, id, src, types.ModeBasic, err)
		return
	}

	modelID := r.cfg.Snapshot().PegasusModelID
	results := make([]types.PromptResult, 0, len(prompts))
	for i, prompt := range prompts {
		r.logger.Info("basic analysis prompt", "analysis_id", id, "prompt", i+1, "total", len(prompts))
		answer, err := r.pegasus.Describe(ctx, modelID, media, prompt)
		if err != nil {
			// Per-prompt failures are recorded inline; the job continues.
			answer = fmt.Sprintf("analysis failed: %v", err)
		}
		results = append(results, types.PromptResult{Prompt: prompt, Response: answer})
	}

	r.complete(ctx, &types.AnalysisResult{
		ID:           id,
		Filename:     src.Filename,
		AnalysisMode: types.ModeBasic,
		Timestamp:    time.Now().Format(time.RFC3339),
		Status:       types.StatusCompleted,
		Results:      &types.AnalysisPayload{BasicResults: results},
	})
}

func (r *Runner) runProfessional(ctx context.Context, id string, src Source, prompt string) {
	r.setStatus(ctx, id, types.StatusAnalyzing)

	if r.pegasus == nil || r.structurer == nil {
		r.fail(ctx, id, src, types.ModeProfessional, fmt.Errorf("bedrock runtime is not configured"))
		return
	}

	media, err := r.resolveMedia(ctx, id, src)
	if err != nil {
		r.fail(ctx, id, src, types.ModeProfessional, err)
		return
	}

	modelID := r.cfg.Snapshot().PegasusModelID
	description, err := r.pegasus.Describe(ctx, modelID, media, prompt)
	if err != nil {
		r.fail(ctx, id, src, types.ModeProfessional, fmt.Errorf("video analysis failed: %w", err))
		return
	}

	structured, err := r.structurer.Structure(ctx, description)
	if err != nil {
		r.fail(ctx, id, src, types.ModeProfessional, fmt.Errorf("structuring failed: %w", err))
		return
	}

	r.complete(ctx, &types.AnalysisResult{
		ID:           id,
		Filename:     src.Filename,
		AnalysisMode: types.ModeProfessional,
		Timestamp:    time.Now().Format(time.RFC3339),
		Status:       types.StatusCompleted,
		Results:      &types.AnalysisPayload{ProfessionalResult: structured},
	})
}

// resolveMedia decides between inline base64 and an S3 location. Local
// files over the base64 limit are staged in the scratch bucket first.
func (r *Runner) resolveMedia(ctx context.Context, id string, src Source) (MediaInput, error) {
	if src.Type == SourceS3URI {
		return MediaInput{S3URI: src.S3URI, BucketOwner: src.BucketOwner}, nil
	}

	st, err := os.Stat(src.Path)
	if err != nil {
		return MediaInput{}, fmt.Errorf("processed video file not found: %w", err)
	}

	cfg := r.cfg.Snapshot()
	sizeMB := float64(st.Size()) / (1024 * 1024)
	if sizeMB <= cfg.Base64LimitMB {
		return MediaInput{FilePath: src.Path}, nil
	}

	if r.storage == nil {
		return MediaInput{}, fmt.Errorf("file is %.2fMB and S3 staging is not configured", sizeMB)
	}

	key := fmt.Sprintf("temp-videos/%s/%s", id, src.Filename)
	uri, err := r.storage.UploadFile(ctx, cfg.S3Bucket, key, src.Path)
	if err != nil {
		return MediaInput{}, err
	}
	owner, err := r.storage.CallerAccount(ctx)
	if err != nil {
		r.logger.Warn("resolve bucket owner", "analysis_id", id, "error", err)
	}
	r.logger.Info("staged large file in scratch bucket", "analysis_id", id, "uri", uri, "size_mb", sizeMB)
	return MediaInput{S3URI: uri, BucketOwner: owner}, nil
}

func (r *Runner) setStatus(ctx context.Context, id string, status types.AnalysisStatus) {
	if err := r.store.SetStatus(ctx, id, status); err != nil {
		r.logger.Error("set status", "analysis_id", id, "status", status, "error", err)
	}
}

func (r *Runner) complete(ctx context.Context, result *types.AnalysisResult) {
	if err := r.store.SaveResult(ctx, result); err != nil {
		r.logger.Error("save result", "analysis_id", result.ID, "error", err)
	}
	r.logger.Info("analysis completed", "analysis_id", result.ID, "mode", result.AnalysisMode)
	r.events.Publish(events.Event{
		Type:       "analysis.completed",
		AnalysisID: result.ID,
		Filename:   result.Filename,
		Mode:       result.AnalysisMode,
	})
}

func (r *Runner) fail(ctx context.Context, id string, src Source, mode types.AnalysisMode, cause error) {
	r.logger.Error("analysis failed", "analysis_id", id, "mode", mode, "error", cause)
	result := &types.AnalysisResult{
		ID:           id,
		Filename:     src.Filename,
		AnalysisMode: mode,
		Timestamp:    time.Now().Format(time.RFC3339),
		Status:       types.StatusError,
		Error:        cause.Error(),
	}
	if err := r.store.SaveResult(ctx, result); err != nil {
		r.logger.Error("save failed result", "analysis_id", id, "error", err)
	}
	r.events.Publish(events.Event{
		Type:       "analysis.failed",
		AnalysisID: id,
		Filename:   src.Filename,
		Mode:       mode,
		Error:      cause.Error(),
	})
}
