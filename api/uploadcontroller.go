package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"videolens/types"
	"videolens/uploads"
)

func (s *Server) registerUploadRoutes(r *gin.Engine) {
	r.POST("/api/upload", s.handleUpload)
	r.GET("/api/files/:fileId/status", s.handleFileStatus)
	r.GET("/api/encoding-progress/:fileId", s.handleEncodingProgress)
	r.POST("/api/validate-s3-uri", s.handleValidateS3URI)
}

// handleUpload accepts a multipart video, stores it under the temp dir,
// and kicks off a background re-encode when the file exceeds the target.
func (s *Server) handleUpload(c *gin.Context) {
	header, err := c.FormFile("video")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing video file: "+err.Error())
		return
	}

	contentType := header.Header.Get("Content-Type")
	validType := strings.HasPrefix(contentType, "video/")
	validExt := types.AllowedExtension(header.Filename)
	if !validType && !validExt {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("invalid file type (content-type: %s, name: %s), upload a video file", contentType, header.Filename))
		return
	}

	if header.Size > types.MaxUploadBytes {
		respondError(c, http.StatusBadRequest, "file too large, maximum size is 2GB")
		return
	}

	fileID := uuid.NewString()
	filename := filepath.Base(header.Filename)
	originalPath := filepath.Join(s.TempDir, fmt.Sprintf("%s_original_%s", fileID, filename))
	if err := c.SaveUploadedFile(header, originalPath); err != nil {
		respondError(c, http.StatusInternalServerError, "upload failed: "+err.Error())
		return
	}

	sizeMB := float64(header.Size) / (1024 * 1024)
	cfg := s.Cfg.Snapshot()
	needsEncoding := sizeMB > float64(cfg.EncodeTargetMB)

	file := &uploads.File{
		ID:                fileID,
		Filename:          filename,
		OriginalPath:      originalPath,
		FinalPath:         originalPath,
		ContentType:       contentType,
		OriginalSizeMB:    sizeMB,
		ProcessingMethod:  "No encoding needed",
		NeedsEncoding:     needsEncoding,
		EncodingCompleted: !needsEncoding,
		UploadTime:        time.Now(),
	}
	if !needsEncoding {
		file.EncodedSizeMB = sizeMB
	} else {
		file.ProcessingMethod = fmt.Sprintf("Auto encoding to %dMB", cfg.EncodeTargetMB)
		file.FinalPath = filepath.Join(s.TempDir, fmt.Sprintf("%s_encoded_%s", fileID, filename))
		go s.encodeInBackground(fileID, originalPath, file.FinalPath)
	}
	s.Registry.AddFile(file)

	s.Logger.Info("file uploaded", "file_id", fileID, "filename", filename,
		"size_mb", fmt.Sprintf("%.2f", sizeMB), "needs_encoding", needsEncoding)

	respondData(c, gin.H{
		"fileId":            fileID,
		"filename":          filename,
		"original_size_mb":  round2(sizeMB),
		"processing_method": file.ProcessingMethod,
		"needs_encoding":    needsEncoding,
	})
}

// encodeInBackground runs the re-encode and keeps the progress registry
// and file record in sync with it.
func (s *Server) encodeInBackground(fileID, inputPath, outputPath string) {
	s.Progress.Set(fileID, 0, "starting", "Preparing to encode...")

	result, err := s.Encoder.Encode(context.Background(), inputPath, outputPath, func(pct int, stage, msg string) {
		s.Progress.Set(fileID, pct, stage, msg)
	})
	if err != nil {
		s.Logger.Error("encoding failed", "file_id", fileID, "error", err)
		s.Registry.UpdateFile(fileID, func(f *uploads.File) {
			f.EncodingCompleted = false
			f.ProcessingMethod = "Encoding failed: " + err.Error()
		})
		s.Progress.ForgetAfter(fileID, 5*time.Second)
		return
	}

	cfg := s.Cfg.Snapshot()
	s.Registry.UpdateFile(fileID, func(f *uploads.File) {
		f.EncodedSizeMB = result.EncodedSizeMB
		f.EncodingCompleted = true
		if result.EncodedSizeMB > float64(cfg.EncodeTargetMB) {
			f.ProcessingMethod = "S3 URI (large file)"
		} else {
			f.ProcessingMethod = "Base64 encoding"
		}
	})
	s.Logger.Info("encoding completed", "file_id", fileID,
		"original_mb", fmt.Sprintf("%.2f", result.OriginalSizeMB),
		"encoded_mb", fmt.Sprintf("%.2f", result.EncodedSizeMB),
		"ratio", fmt.Sprintf("%.2f", result.CompressionRatio))

	// Keep the terminal tick visible to pollers briefly, then clear.
	s.Progress.ForgetAfter(fileID, 5*time.Second)
}

// handleFileStatus reports where an upload stands in its encode lifecycle.
func (s *Server) handleFileStatus(c *gin.Context) {
	fileID := c.Param("fileId")
	file, ok := s.Registry.GetFile(fileID)
	if !ok {
		respondError(c, http.StatusNotFound, "file not found")
		return
	}

	_, statErr := os.Stat(file.FinalPath)
	finalExists := statErr == nil
	var finalSizeMB float64
	if finalExists {
		if st, err := os.Stat(file.FinalPath); err == nil {
			finalSizeMB = float64(st.Size()) / (1024 * 1024)
		}
	}

	respondData(c, gin.H{
		"file_id":            file.ID,
		"filename":           file.Filename,
		"original_size_mb":   round2(file.OriginalSizeMB),
		"encoded_size_mb":    round2(file.EncodedSizeMB),
		"final_size_mb":      round2(finalSizeMB),
		"needs_encoding":     file.NeedsEncoding,
		"encoding_completed": file.EncodingCompleted,
		"processing_method":  file.ProcessingMethod,
		"final_file_exists":  finalExists,
		"ready_for_analysis": finalExists && file.EncodingCompleted,
	})
}

// handleEncodingProgress serves the 1-second polling loop. A missing
// entry is reported as a failure envelope; clients decide whether that
// means "already done" or an error.
func (s *Server) handleEncodingProgress(c *gin.Context) {
	fileID := c.Param("fileId")
	progress, ok := s.Progress.Get(fileID)
	if !ok {
		respondError(c, http.StatusOK, "encoding progress not found")
		return
	}
	respondData(c, progress)
}

type s3URIRequest struct {
	S3URI string `json:"s3Uri"`
}

// handleValidateS3URI checks format and remote accessibility of an S3
// reference and remembers it for later analyze calls.
func (s *Server) handleValidateS3URI(c *gin.Context) {
	var req s3URIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	bucket, key, err := types.ParseS3URI(req.S3URI)
	if err != nil {
		respondError(c, http.StatusOK, err.Error())
		return
	}

	var size int64
	var owner string
	if s.Storage != nil {
		size, err = s.Storage.Stat(c.Request.Context(), bucket, key)
		if err != nil {
			respondError(c, http.StatusOK, err.Error())
			return
		}
		if size > types.MaxUploadBytes {
			respondError(c, http.StatusOK, "file too large, maximum size is 2GB")
			return
		}
		owner, err = s.Storage.CallerAccount(c.Request.Context())
		if err != nil {
			s.Logger.Warn("resolve caller account", "error", err)
		}
	} else {
		// AWS not configured: accept on format alone so the flow can be
		// exercised against a local backend.
		owner = os.Getenv("AWS_ACCOUNT_ID")
	}

	uri := &uploads.ValidatedURI{
		ID:          uuid.NewString(),
		URI:         req.S3URI,
		Bucket:      bucket,
		Key:         key,
		Size:        size,
		BucketOwner: owner,
		ValidatedAt: time.Now(),
	}
	s.Registry.AddURI(uri)

	respondData(c, gin.H{
		"uriId":             uri.ID,
		"s3Uri":             uri.URI,
		"size_mb":           round2(float64(size) / (1024 * 1024)),
		"processing_method": "Direct S3 access",
	})
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
