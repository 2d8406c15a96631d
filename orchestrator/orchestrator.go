package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"videolens/client"
	"videolens/types"
)

// Phase is where the workflow currently stands. Transitions are strictly
// forward within a run; Reset is the only way back to idle.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseUploading Phase = "uploading"
	PhaseEncoding  Phase = "encoding"
	PhaseAnalyzing Phase = "analyzing"
	PhaseCompleted Phase = "completed"
	PhaseError     Phase = "error"
)

// EncodePolicy decides what a missing encode-progress entry means. The
// relay clears progress shortly after an encode finishes, so a poll can
// race the cleanup and see a failure envelope for a healthy file.
type EncodePolicy int

const (
	// AssumeComplete treats a missing entry as a finished encode and
	// moves on to analysis. Default.
	AssumeComplete EncodePolicy = iota
	// FailOnMissing treats a missing entry as an error.
	FailOnMissing
)

const (
	encodePollInterval  = 1 * time.Second
	analyzePollInterval = 2 * time.Second
)

// Snapshot is a point-in-time copy of the workflow state, safe to hand
// to a render loop.
type Snapshot struct {
	Phase          Phase
	Source         *types.VideoSource
	Mode           types.AnalysisMode
	FileID         string
	AnalysisID     string
	UploadPct      int
	EncodePct      int
	EncodeStage    string
	EncodeMessage  string
	AnalysisStatus types.AnalysisStatus
	Result         *types.AnalysisResult
	Err            error
	StartedAt      time.Time
}

// Running reports whether a workflow run is in flight.
func (s Snapshot) Running() bool {
	switch s.Phase {
	case PhaseUploading, PhaseEncoding, PhaseAnalyzing:
		return true
	}
	return false
}

// Orchestrator drives a single video through upload, optional encoding,
// and analysis, polling the relay for progress. One run at a time.
type Orchestrator struct {
	mu     sync.Mutex
	client *client.Client
	logger *slog.Logger
	policy EncodePolicy

	encodeInterval  time.Duration
	analyzeInterval time.Duration

	state  Snapshot
	cancel context.CancelFunc
}

// Option customizes a new Orchestrator.
type Option func(*Orchestrator)

// WithEncodePolicy overrides the default missing-progress handling.
func WithEncodePolicy(p EncodePolicy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithPollIntervals overrides the encode and analyze poll cadence.
func WithPollIntervals(encode, analyze time.Duration) Option {
	return func(o *Orchestrator) {
		o.encodeInterval = encode
		o.analyzeInterval = analyze
	}
}

// New creates an orchestrator over the given relay client.
func New(c *client.Client, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:          c,
		logger:          logger,
		policy:          AssumeComplete,
		encodeInterval:  encodePollInterval,
		analyzeInterval: analyzePollInterval,
		state:           Snapshot{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SelectSource replaces the selected video. Rejected while a run is in
// flight; selecting a new source after a finished run keeps the old
// result visible until Start or Reset.
func (o *Orchestrator) SelectSource(src types.VideoSource) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Running() {
		return errors.New("cannot change source while a run is in progress")
	}
	if err := client.ValidateSource(src); err != nil {
		return err
	}
	o.state.Source = &src
	o.state.Err = nil
	return nil
}

// CanAnalyze reports whether Start would be accepted right now.
func (o *Orchestrator) CanAnalyze() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Source != nil && !o.state.Running()
}

// Start begins a run with the selected source. A no-op error while a
// run is already in flight; validation failures surface here without
// leaving idle.
func (o *Orchestrator) Start(req client.AnalysisRequest) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Running() {
		return errors.New("a run is already in progress")
	}
	if o.state.Source == nil {
		return errors.New("no video selected")
	}
	src := *o.state.Source
	if err := client.ValidateSource(src); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.state = Snapshot{
		Phase:     PhaseUploading,
		Source:    &src,
		Mode:      req.Mode,
		StartedAt: time.Now(),
	}

	go o.run(ctx, src, req)
	return nil
}

// Reset cancels any in-flight run and returns to idle with nothing
// selected.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.state = Snapshot{Phase: PhaseIdle}
}

// update applies fn to the state unless the run owning the call was
// cancelled out from under it by Reset.
func (o *Orchestrator) update(ctx context.Context, fn func(*Snapshot)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	fn(&o.state)
}

func (o *Orchestrator) fail(ctx context.Context, err error) {
	o.logger.Error("run failed", "error", err)
	o.update(ctx, func(s *Snapshot) {
		s.Phase = PhaseError
		s.Err = err
	})
}

// run executes the workflow end to end on its own goroutine.
func (o *Orchestrator) run(ctx context.Context, src types.VideoSource, req client.AnalysisRequest) {
	if src.Remote() {
		info, err := o.client.ValidateS3URI(ctx, src.S3URI)
		if err != nil {
			o.fail(ctx, fmt.Errorf("validate S3 URI: %w", err))
			return
		}
		o.logger.Info("S3 URI validated", "uri", info.S3URI, "size_mb", info.SizeMB)
		req.S3URI = src.S3URI
		o.update(ctx, func(s *Snapshot) { s.UploadPct = 100 })
	} else {
		info, err := o.client.UploadVideo(ctx, src.Path, func(pct int) {
			o.update(ctx, func(s *Snapshot) { s.UploadPct = pct })
		})
		if err != nil {
			o.fail(ctx, fmt.Errorf("upload: %w", err))
			return
		}
		o.logger.Info("upload complete", "file_id", info.FileID,
			"size_mb", info.OriginalSizeMB, "needs_encoding", info.NeedsEncoding)
		req.FileID = info.FileID
		o.update(ctx, func(s *Snapshot) {
			s.FileID = info.FileID
			s.UploadPct = 100
		})

		if info.NeedsEncoding {
			o.update(ctx, func(s *Snapshot) { s.Phase = PhaseEncoding })
			if err := o.pollEncoding(ctx, info.FileID); err != nil {
				o.fail(ctx, err)
				return
			}
		}
	}

	o.update(ctx, func(s *Snapshot) { s.Phase = PhaseAnalyzing })
	analysisID, err := o.client.SubmitAnalysis(ctx, req)
	if err != nil {
		o.fail(ctx, fmt.Errorf("submit analysis: %w", err))
		return
	}
	o.logger.Info("analysis submitted", "analysis_id", analysisID, "mode", req.Mode)
	o.update(ctx, func(s *Snapshot) {
		s.AnalysisID = analysisID
		s.AnalysisStatus = types.StatusAnalyzing
	})

	result, err := o.pollAnalysis(ctx, analysisID)
	if err != nil {
		o.fail(ctx, err)
		return
	}

	if result.Status == types.StatusError {
		o.update(ctx, func(s *Snapshot) {
			s.Phase = PhaseError
			s.AnalysisStatus = result.Status
			s.Result = result
			s.Err = fmt.Errorf("analysis failed: %s", result.Error)
		})
		return
	}
	o.logger.Info("analysis completed", "analysis_id", analysisID)
	o.update(ctx, func(s *Snapshot) {
		s.Phase = PhaseCompleted
		s.AnalysisStatus = result.Status
		s.Result = result
	})
}

// pollEncoding watches the relay's encode progress once a second until
// it reaches 100, the entry disappears, or the run is cancelled.
func (o *Orchestrator) pollEncoding(ctx context.Context, fileID string) error {
	ticker := time.NewTicker(o.encodeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		progress, err := o.client.EncodingProgress(ctx, fileID)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				// The relay clears progress after the encode finishes,
				// so a missing entry usually means we polled too late.
				if o.policy == AssumeComplete {
					o.logger.Info("encode progress gone, assuming complete", "file_id", fileID)
					return nil
				}
				return fmt.Errorf("encoding progress: %w", err)
			}
			return fmt.Errorf("encoding progress: %w", err)
		}

		o.update(ctx, func(s *Snapshot) {
			s.EncodePct = progress.Percentage
			s.EncodeStage = progress.Stage
			s.EncodeMessage = progress.Message
		})
		if progress.Stage == "error" {
			return fmt.Errorf("encoding failed: %s", progress.Message)
		}
		if progress.Percentage >= 100 {
			return nil
		}
	}
}

// pollAnalysis watches a job every two seconds until it reaches a
// terminal status or the run is cancelled.
func (o *Orchestrator) pollAnalysis(ctx context.Context, analysisID string) (*types.AnalysisResult, error) {
	ticker := time.NewTicker(o.analyzeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		result, err := o.client.AnalysisStatus(ctx, analysisID)
		if err != nil {
			return nil, fmt.Errorf("analysis status: %w", err)
		}
		o.update(ctx, func(s *Snapshot) { s.AnalysisStatus = result.Status })
		if result.Status.Terminal() {
			return result, nil
		}
	}
}
