package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"videolens/analyzer"
	"videolens/config"
	"videolens/encoder"
	"videolens/storage"
	"videolens/store"
	"videolens/uploads"
)

// Runner is the slice of the analysis pipeline the controllers need.
type Runner interface {
	StartBasic(src analyzer.Source, prompts []string) string
	StartProfessional(src analyzer.Source, prompt string) string
}

// Server holds the dependencies shared by all controllers.
type Server struct {
	Cfg      *config.Config
	Registry *uploads.Registry
	Encoder  *encoder.Encoder
	Progress *encoder.Registry
	Runner   Runner
	Store    store.Store
	Storage  *storage.S3 // nil when AWS is not configured
	Logger   *slog.Logger
	TempDir  string
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = 64 << 20

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	s.registerConfigRoutes(r)
	s.registerUploadRoutes(r)
	s.registerAnalysisRoutes(r)
	return r
}
