package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"videolens/types"
)

func TestEnvelopeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "data": {"percentage": 45, "stage": "encoding", "message": "Compressing: 45%"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	p, err := c.EncodingProgress(context.Background(), "f1")
	if err != nil {
		t.Fatalf("EncodingProgress: %v", err)
	}
	if p.Percentage != 45 || p.Stage != "encoding" {
		t.Fatalf("progress = %+v; want 45/encoding", p)
	}
}

func TestEnvelopeFailureIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The relay reports some failures inside a 200 response.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "error": "encoding progress not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.EncodingProgress(context.Background(), "f1")
	if err == nil {
		t.Fatalf("expected error for failure envelope")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is %T; want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d; want 200", apiErr.StatusCode)
	}
	if apiErr.Message != "encoding progress not found" {
		t.Fatalf("Message = %q", apiErr.Message)
	}
}

func TestTransportErrorIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL)
	_, err := c.EncodingProgress(context.Background(), "f1")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("transport failure surfaced as *APIError")
	}
}

func TestSubmitAnalysisRoutesByMode(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "data": {"analysisId": "job-1"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	id, err := c.SubmitAnalysis(context.Background(), AnalysisRequest{
		Mode:    types.ModeBasic,
		FileID:  "f1",
		Prompts: []string{"a", "b", "c"},
	})
	if err != nil {
		t.Fatalf("SubmitAnalysis basic: %v", err)
	}
	if id != "job-1" {
		t.Fatalf("analysis id = %q; want job-1", id)
	}
	if gotPath != "/api/analyze/basic" {
		t.Fatalf("basic mode hit %q", gotPath)
	}

	if _, err := c.SubmitAnalysis(context.Background(), AnalysisRequest{
		Mode:   types.ModeProfessional,
		S3URI:  "s3://bucket/clip.mp4",
		Prompt: "describe",
	}); err != nil {
		t.Fatalf("SubmitAnalysis professional: %v", err)
	}
	if gotPath != "/api/analyze/professional" {
		t.Fatalf("professional mode hit %q", gotPath)
	}
}

func TestUploadVideoReportsProgress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, make([]byte, 1<<20), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		f, header, err := r.FormFile("video")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			f.Close()
			if header.Filename != "clip.mp4" {
				t.Errorf("filename = %q", header.Filename)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "data": {"fileId": "f1", "filename": "clip.mp4", "original_size_mb": 1.0, "needs_encoding": false}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	var last int
	info, err := c.UploadVideo(context.Background(), path, func(pct int) { last = pct })
	if err != nil {
		t.Fatalf("UploadVideo: %v", err)
	}
	if info.FileID != "f1" || info.NeedsEncoding {
		t.Fatalf("info = %+v", info)
	}
	if last != 100 {
		t.Fatalf("final progress = %d; want 100", last)
	}
}

func TestValidateLocalFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(good, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	bad := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(bad, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := ValidateLocalFile(good); err != nil {
		t.Fatalf("ValidateLocalFile(good) = %v", err)
	}
	if err := ValidateLocalFile(bad); err == nil {
		t.Fatalf("ValidateLocalFile accepted wrong extension")
	}
	if err := ValidateLocalFile(filepath.Join(dir, "missing.mp4")); err == nil {
		t.Fatalf("ValidateLocalFile accepted a missing file")
	}
	if err := ValidateLocalFile(dir); err == nil {
		t.Fatalf("ValidateLocalFile accepted a directory")
	}
}

func TestValidateLocalFileRejectsOversized(t *testing.T) {
	// Sparse file: no real bytes are written, only the size is set.
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

	err = ValidateLocalFile(path)
	if err == nil {
		t.Fatalf("file over the 2GB ceiling accepted")
	}
	if !strings.Contains(err.Error(), "2GB") {
		t.Fatalf("error does not name the ceiling: %v", err)
	}

	// Exactly at the ceiling is still allowed.
	if err := os.Truncate(path, types.MaxUploadBytes); err != nil {
		t.Fatalf("truncate fixture: %v", err)
	}
	if err := ValidateLocalFile(path); err != nil {
		t.Fatalf("file at the ceiling rejected: %v", err)
	}
}

func TestValidateSource(t *testing.T) {
	if err := ValidateSource(types.VideoSource{S3URI: "s3://my-bucket/clip.mp4"}); err != nil {
		t.Fatalf("valid S3 source rejected: %v", err)
	}
	if err := ValidateSource(types.VideoSource{S3URI: "s3://MyBucket/clip.mp4"}); err == nil {
		t.Fatalf("uppercase bucket accepted")
	}
	if err := ValidateSource(types.VideoSource{S3URI: "s3://my-bucket/clip.mkv"}); err == nil {
		t.Fatalf("disallowed extension accepted")
	}
}
