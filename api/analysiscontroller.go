package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"videolens/analyzer"
	"videolens/types"
)

func (s *Server) registerAnalysisRoutes(r *gin.Engine) {
	r.POST("/api/analyze/basic", s.handleAnalyzeBasic)
	r.POST("/api/analyze/professional", s.handleAnalyzeProfessional)
	r.GET("/api/analysis/:id/status", s.handleAnalysisStatus)
	r.GET("/api/analysis/:id/result", s.handleAnalysisResult)
	r.GET("/api/results", s.handleListResults)
	r.DELETE("/api/results/:id", s.handleDeleteResult)
	r.GET("/api/results/:id/download", s.handleDownloadResult)
}

type analyzeRequest struct {
	FileID  string   `json:"fileId"`
	S3URI   string   `json:"s3Uri"`
	Prompts []string `json:"prompts"`
	Prompt  string   `json:"prompt"`
}

// resolveSource maps an analyze request onto a runnable source, writing
// the error response itself when resolution fails.
func (s *Server) resolveSource(c *gin.Context, req analyzeRequest) (analyzer.Source, bool) {
	switch {
	case req.FileID != "":
		file, ok := s.Registry.GetFile(req.FileID)
		if !ok {
			respondError(c, http.StatusNotFound, "file not found")
			return analyzer.Source{}, false
		}
		if file.NeedsEncoding && !file.EncodingCompleted {
			if _, err := os.Stat(file.FinalPath); err != nil {
				respondError(c, http.StatusBadRequest, "video encoding is still in progress, please wait")
				return analyzer.Source{}, false
			}
		}
		if _, err := os.Stat(file.FinalPath); err != nil {
			respondError(c, http.StatusNotFound, "processed video file not found")
			return analyzer.Source{}, false
		}
		return analyzer.Source{
			Type:     analyzer.SourceFile,
			Path:     file.FinalPath,
			Filename: file.Filename,
		}, true

	case req.S3URI != "":
		uri, ok := s.Registry.FindURI(req.S3URI)
		if !ok {
			respondError(c, http.StatusNotFound, "S3 URI not validated, validate it first")
			return analyzer.Source{}, false
		}
		return analyzer.Source{
			Type:        analyzer.SourceS3URI,
			S3URI:       uri.URI,
			BucketOwner: uri.BucketOwner,
			Filename:    filepath.Base(uri.Key),
		}, true

	default:
		respondError(c, http.StatusBadRequest, "either fileId or s3Uri must be provided")
		return analyzer.Source{}, false
	}
}

// handleAnalyzeBasic starts a three-prompt analysis job.
func (s *Server) handleAnalyzeBasic(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if len(req.Prompts) != 3 {
		respondError(c, http.StatusBadRequest, "exactly 3 prompts are required for basic analysis")
		return
	}

	src, ok := s.resolveSource(c, req)
	if !ok {
		return
	}

	id := s.Runner.StartBasic(src, req.Prompts)
	s.Logger.Info("basic analysis started", "analysis_id", id, "source", src.Type, "filename", src.Filename)
	respondData(c, gin.H{"analysisId": id})
}

// handleAnalyzeProfessional starts a single-prompt analysis with a
// structuring pass.
func (s *Server) handleAnalyzeProfessional(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Prompt == "" {
		respondError(c, http.StatusBadRequest, "prompt is required for professional analysis")
		return
	}

	src, ok := s.resolveSource(c, req)
	if !ok {
		return
	}

	id := s.Runner.StartProfessional(src, req.Prompt)
	s.Logger.Info("professional analysis started", "analysis_id", id, "source", src.Type, "filename", src.Filename)
	respondData(c, gin.H{"analysisId": id})
}

// handleAnalysisStatus serves the 2-second polling loop. Jobs without a
// result yet get a pending stub.
func (s *Server) handleAnalysisStatus(c *gin.Context) {
	id := c.Param("id")

	result, ok, err := s.Store.GetResult(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if ok {
		respondData(c, result)
		return
	}

	status, ok, err := s.Store.GetStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		respondError(c, http.StatusNotFound, "analysis not found")
		return
	}
	respondData(c, types.AnalysisResult{
		ID:        id,
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleAnalysisResult(c *gin.Context) {
	id := c.Param("id")
	result, ok, err := s.Store.GetResult(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		respondError(c, http.StatusNotFound, "analysis result not found")
		return
	}
	respondData(c, result)
}

func (s *Server) handleListResults(c *gin.Context) {
	results, err := s.Store.ListResults(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(c, results)
}

func (s *Server) handleDeleteResult(c *gin.Context) {
	if err := s.Store.DeleteResult(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondMessage(c, "result deleted")
}

// handleDownloadResult serves a result as a JSON file attachment.
func (s *Server) handleDownloadResult(c *gin.Context) {
	id := c.Param("id")
	result, ok, err := s.Store.GetResult(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		respondError(c, http.StatusNotFound, "result not found")
		return
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="analysis_result_%s.json"`, id))
	c.Data(http.StatusOK, "application/json", payload)
}
