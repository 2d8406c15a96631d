package orchestrator

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"videolens/client"
	"videolens/types"
)

// fakeRelay is a minimal in-memory stand-in for the backend: it answers
// the upload, encode-progress, analyze, and status endpoints with
// scripted behavior.
type fakeRelay struct {
	mu sync.Mutex

	needsEncoding  bool
	encodeTicks    []types.Progress // served in order, then repeats last
	encodeMissing  bool             // serve a failure envelope instead
	encodeTickIdx  int
	statusSequence []types.AnalysisStatus // served in order, then repeats last
	statusIdx      int
	finalResult    *types.AnalysisResult

	uploads  int
	analyses int
}

func (f *fakeRelay) handler() http.Handler {
	mux := http.NewServeMux()

	writeData := func(w http.ResponseWriter, data any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
	}
	writeFailure := func(w http.ResponseWriter, msg string) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
	}

	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		f.mu.Lock()
		f.uploads++
		needs := f.needsEncoding
		f.mu.Unlock()
		writeData(w, map[string]any{
			"fileId": "file-1", "filename": "clip.mp4",
			"original_size_mb": 42.0, "needs_encoding": needs,
		})
	})

	mux.HandleFunc("/api/encoding-progress/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.encodeMissing {
			writeFailure(w, "encoding progress not found")
			return
		}
		tick := f.encodeTicks[f.encodeTickIdx]
		if f.encodeTickIdx < len(f.encodeTicks)-1 {
			f.encodeTickIdx++
		}
		writeData(w, tick)
	})

	mux.HandleFunc("/api/analyze/basic", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.analyses++
		f.mu.Unlock()
		writeData(w, map[string]string{"analysisId": "job-1"})
	})
	mux.HandleFunc("/api/analyze/professional", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.analyses++
		f.mu.Unlock()
		writeData(w, map[string]string{"analysisId": "job-1"})
	})

	mux.HandleFunc("/api/analysis/job-1/status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status := f.statusSequence[f.statusIdx]
		if f.statusIdx < len(f.statusSequence)-1 {
			f.statusIdx++
		}
		result := f.finalResult
		f.mu.Unlock()

		if status.Terminal() && result != nil {
			writeData(w, result)
			return
		}
		writeData(w, types.AnalysisResult{ID: "job-1", Status: status})
	})

	mux.HandleFunc("/api/validate-s3-uri", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			S3URI string `json:"s3Uri"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if _, _, err := types.ParseS3URI(req.S3URI); err != nil {
			writeFailure(w, err.Error())
			return
		}
		writeData(w, map[string]any{"uriId": "uri-1", "s3Uri": req.S3URI, "size_mb": 12.5})
	})

	return mux
}

func writeFixture(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func newTestOrchestrator(t *testing.T, relay *fakeRelay, opts ...Option) *Orchestrator {
	t.Helper()
	srv := httptest.NewServer(relay.handler())
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithPollIntervals(10*time.Millisecond, 10*time.Millisecond)}, opts...)
	return New(client.New(srv.URL), logger, opts...)
}

func waitForPhase(t *testing.T, o *Orchestrator, want Phase) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := o.Snapshot()
		if snap.Phase == want {
			return snap
		}
		if snap.Phase == PhaseError && want != PhaseError {
			t.Fatalf("run errored while waiting for %s: %v", want, snap.Err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for phase %s (at %s)", want, o.Snapshot().Phase)
	return Snapshot{}
}

func completedResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		ID:           "job-1",
		Filename:     "clip.mp4",
		AnalysisMode: types.ModeBasic,
		Status:       types.StatusCompleted,
		Results: &types.AnalysisPayload{
			BasicResults: []types.PromptResult{{Prompt: "p", Response: "r"}},
		},
	}
}

func TestCanAnalyzeRequiresSource(t *testing.T) {
	o := newTestOrchestrator(t, &fakeRelay{})

	if o.CanAnalyze() {
		t.Fatalf("CanAnalyze true with no source")
	}
	if err := o.Start(client.AnalysisRequest{Mode: types.ModeBasic}); err == nil {
		t.Fatalf("Start accepted with no source")
	}

	path := writeFixture(t, "clip.mp4", 1024)
	if err := o.SelectSource(types.VideoSource{Path: path}); err != nil {
		t.Fatalf("SelectSource: %v", err)
	}
	if !o.CanAnalyze() {
		t.Fatalf("CanAnalyze false with a valid source")
	}
}

func TestSelectSourceRejectsInvalid(t *testing.T) {
	o := newTestOrchestrator(t, &fakeRelay{})

	if err := o.SelectSource(types.VideoSource{Path: "/does/not/exist.mp4"}); err == nil {
		t.Fatalf("missing file accepted")
	}
	if err := o.SelectSource(types.VideoSource{S3URI: "s3://BadBucket/clip.mp4"}); err == nil {
		t.Fatalf("uppercase bucket accepted")
	}
	if o.Snapshot().Source != nil {
		t.Fatalf("rejected source was stored")
	}
	// Rejection happens before any phase change.
	if o.Snapshot().Phase != PhaseIdle {
		t.Fatalf("phase = %s; want idle", o.Snapshot().Phase)
	}
}

func TestRunSkipsEncodingWhenNotNeeded(t *testing.T) {
	relay := &fakeRelay{
		needsEncoding:  false,
		statusSequence: []types.AnalysisStatus{types.StatusAnalyzing, types.StatusCompleted},
		finalResult:    completedResult(),
	}
	o := newTestOrchestrator(t, relay)

	path := writeFixture(t, "clip.mp4", 1024)
	if err := o.SelectSource(types.VideoSource{Path: path}); err != nil {
		t.Fatalf("SelectSource: %v", err)
	}
	if err := o.Start(client.AnalysisRequest{Mode: types.ModeBasic, Prompts: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := waitForPhase(t, o, PhaseCompleted)
	if snap.EncodePct != 0 || snap.EncodeStage != "" {
		t.Fatalf("encoding phase ran for a file that did not need it: %+v", snap)
	}
	if snap.Result == nil || snap.Result.ID != "job-1" {
		t.Fatalf("completed without a result: %+v", snap)
	}
	if snap.AnalysisID != "job-1" {
		t.Fatalf("AnalysisID = %q", snap.AnalysisID)
	}
}

func TestRunPollsEncodingToCompletion(t *testing.T) {
	relay := &fakeRelay{
		needsEncoding: true,
		encodeTicks: []types.Progress{
			{Percentage: 30, Stage: "encoding", Message: "Compressing: 30%"},
			{Percentage: 70, Stage: "encoding", Message: "Compressing: 70%"},
			{Percentage: 100, Stage: "done", Message: "Encoding complete."},
		},
		statusSequence: []types.AnalysisStatus{types.StatusCompleted},
		finalResult:    completedResult(),
	}
	o := newTestOrchestrator(t, relay)

	path := writeFixture(t, "clip.mp4", 1024)
	if err := o.SelectSource(types.VideoSource{Path: path}); err != nil {
		t.Fatalf("SelectSource: %v", err)
	}
	if err := o.Start(client.AnalysisRequest{Mode: types.ModeBasic, Prompts: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := waitForPhase(t, o, PhaseCompleted)
	if snap.EncodePct != 100 {
		t.Fatalf("EncodePct = %d; want 100", snap.EncodePct)
	}
}

func TestMissingEncodeProgressAssumedComplete(t *testing.T) {
	relay := &fakeRelay{
		needsEncoding:  true,
		encodeMissing:  true,
		statusSequence: []types.AnalysisStatus{types.StatusCompleted},
		finalResult:    completedResult(),
	}
	o := newTestOrchestrator(t, relay)

	path := writeFixture(t, "clip.mp4", 1024)
	if err := o.SelectSource(types.VideoSource{Path: path}); err != nil {
		t.Fatalf("SelectSource: %v", err)
	}
	if err := o.Start(client.AnalysisRequest{Mode: types.ModeBasic, Prompts: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitForPhase(t, o, PhaseCompleted)
	relay.mu.Lock()
	defer relay.mu.Unlock()
	if relay.analyses != 1 {
		t.Fatalf("analyses = %d; want 1", relay.analyses)
	}
}

func TestMissingEncodeProgressFailsUnderStrictPolicy(t *testing.T) {
	relay := &fakeRelay{
		needsEncoding: true,
		encodeMissing: true,
	}
	o := newTestOrchestrator(t, relay, WithEncodePolicy(FailOnMissing))

	path := writeFixture(t, "clip.mp4", 1024)
	if err := o.SelectSource(types.VideoSource{Path: path}); err != nil {
		t.Fatalf("SelectSource: %v", err)
	}
	if err := o.Start(client.AnalysisRequest{Mode: types.ModeBasic, Prompts: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := waitForPhase(t, o, PhaseError)
	if snap.Err == nil {
		t.Fatalf("error phase without an error")
	}
	relay.mu.Lock()
	defer relay.mu.Unlock()
	if relay.analyses != 0 {
		t.Fatalf("analysis submitted despite encode failure")
	}
}

func TestRemoteSourceValidatesInsteadOfUploading(t *testing.T) {
	relay := &fakeRelay{
		statusSequence: []types.AnalysisStatus{types.StatusCompleted},
		finalResult:    completedResult(),
	}
	o := newTestOrchestrator(t, relay)

	if err := o.SelectSource(types.VideoSource{S3URI: "s3://my-bucket/clip.mp4"}); err != nil {
		t.Fatalf("SelectSource: %v", err)
	}
	if err := o.Start(client.AnalysisRequest{Mode: types.ModeProfessional, Prompt: "describe"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitForPhase(t, o, PhaseCompleted)
	relay.mu.Lock()
	defer relay.mu.Unlock()
	if relay.uploads != 0 {
		t.Fatalf("remote source triggered an upload")
	}
	if relay.analyses != 1 {
		t.Fatalf("analyses = %d; want 1", relay.analyses)
	}
}

func TestAnalysisErrorEndsInErrorPhase(t *testing.T) {
	relay := &fakeRelay{
		statusSequence: []types.AnalysisStatus{types.StatusAnalyzing, types.StatusError},
		finalResult: &types.AnalysisResult{
			ID: "job-1", Status: types.StatusError, Error: "video analysis failed",
		},
	}
	o := newTestOrchestrator(t, relay)

	path := writeFixture(t, "clip.mp4", 1024)
	if err := o.SelectSource(types.VideoSource{Path: path}); err != nil {
		t.Fatalf("SelectSource: %v", err)
	}
	if err := o.Start(client.AnalysisRequest{Mode: types.ModeBasic, Prompts: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := waitForPhase(t, o, PhaseError)
	if snap.Err == nil || snap.Result == nil {
		t.Fatalf("error phase missing err/result: %+v", snap)
	}
	if snap.Result.Error != "video analysis failed" {
		t.Fatalf("result error = %q", snap.Result.Error)
	}
}

func TestStartWhileRunningIsRejected(t *testing.T) {
	relay := &fakeRelay{
		// Never reaches terminal, so the run stays in analyzing.
		statusSequence: []types.AnalysisStatus{types.StatusAnalyzing},
	}
	o := newTestOrchestrator(t, relay)

	path := writeFixture(t, "clip.mp4", 1024)
	if err := o.SelectSource(types.VideoSource{Path: path}); err != nil {
		t.Fatalf("SelectSource: %v", err)
	}
	if err := o.Start(client.AnalysisRequest{Mode: types.ModeBasic, Prompts: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForPhase(t, o, PhaseAnalyzing)

	if err := o.Start(client.AnalysisRequest{Mode: types.ModeBasic}); err == nil {
		t.Fatalf("second Start accepted while running")
	}
	if err := o.SelectSource(types.VideoSource{Path: path}); err == nil {
		t.Fatalf("SelectSource accepted while running")
	}
	if o.CanAnalyze() {
		t.Fatalf("CanAnalyze true while running")
	}

	o.Reset()
}

func TestResetReturnsToIdle(t *testing.T) {
	relay := &fakeRelay{
		statusSequence: []types.AnalysisStatus{types.StatusAnalyzing},
	}
	o := newTestOrchestrator(t, relay)

	path := writeFixture(t, "clip.mp4", 1024)
	if err := o.SelectSource(types.VideoSource{Path: path}); err != nil {
		t.Fatalf("SelectSource: %v", err)
	}
	if err := o.Start(client.AnalysisRequest{Mode: types.ModeBasic, Prompts: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForPhase(t, o, PhaseAnalyzing)

	o.Reset()
	snap := o.Snapshot()
	if snap.Phase != PhaseIdle || snap.Source != nil || snap.Result != nil || snap.Err != nil {
		t.Fatalf("Reset left state behind: %+v", snap)
	}

	// The cancelled run must not write into the fresh state.
	time.Sleep(50 * time.Millisecond)
	if got := o.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("cancelled run resurfaced as %s", got)
	}

	if o.CanAnalyze() {
		t.Fatalf("CanAnalyze true after Reset cleared the source")
	}
}

func TestStartValidatesWithoutLeavingIdle(t *testing.T) {
	o := newTestOrchestrator(t, &fakeRelay{})

	path := writeFixture(t, "clip.mp4", 1024)
	if err := o.SelectSource(types.VideoSource{Path: path}); err != nil {
		t.Fatalf("SelectSource: %v", err)
	}

	// Remove the file after selection; Start re-validates and must fail
	// before the uploading phase.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove fixture: %v", err)
	}
	if err := o.Start(client.AnalysisRequest{Mode: types.ModeBasic, Prompts: []string{"a", "b", "c"}}); err == nil {
		t.Fatalf("Start accepted a vanished file")
	}
	if got := o.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("failed validation changed phase to %s", got)
	}
}

func TestOversizedFileNeverReachesUploading(t *testing.T) {
	relay := &fakeRelay{}
	o := newTestOrchestrator(t, relay)

	// Sparse fixture: size set without writing 2GB of real bytes.
	path := filepath.Join(t.TempDir(), "huge.mp4")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	if err := f.Truncate(types.MaxUploadBytes + 1); err != nil {
		f.Close()
		t.Fatalf("truncate fixture: %v", err)
	}
	f.Close()

	if err := o.SelectSource(types.VideoSource{Path: path}); err == nil {
		t.Fatalf("oversized file accepted as source")
	}
	if got := o.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("rejected selection changed phase to %s", got)
	}

	// A file that grows past the ceiling after selection is caught by
	// Start's re-validation, again without leaving idle.
	if err := os.Truncate(path, 1024); err != nil {
		t.Fatalf("shrink fixture: %v", err)
	}
	if err := o.SelectSource(types.VideoSource{Path: path}); err != nil {
		t.Fatalf("SelectSource: %v", err)
	}
	if err := os.Truncate(path, types.MaxUploadBytes+1); err != nil {
		t.Fatalf("grow fixture: %v", err)
	}
	if err := o.Start(client.AnalysisRequest{Mode: types.ModeBasic, Prompts: []string{"a", "b", "c"}}); err == nil {
		t.Fatalf("Start accepted an oversized file")
	}
	if got := o.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("failed validation changed phase to %s", got)
	}
	relay.mu.Lock()
	defer relay.mu.Unlock()
	if relay.uploads != 0 {
		t.Fatalf("oversized file reached the upload endpoint")
	}
}

func TestWrongExtensionNeverReachesUploading(t *testing.T) {
	o := newTestOrchestrator(t, &fakeRelay{})
	path := writeFixture(t, "archive.tar", 1024)
	if err := o.SelectSource(types.VideoSource{Path: path}); err == nil {
		t.Fatalf("non-video file accepted")
	}
	if got := o.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("rejected selection changed phase to %s", got)
	}
}
