package config

import (
	"os"
	"strconv"
	"sync"
)

// CompressionSettings control the ffmpeg re-encode pass.
type CompressionSettings struct {
	MaxSizeMB  int    `json:"max_size_mb"`
	CRF        int    `json:"crf"`
	Preset     string `json:"preset"`
	Resolution string `json:"resolution"`
	Framerate  int    `json:"framerate"`
}

// AppConfig is the runtime configuration exposed through /api/config.
type AppConfig struct {
	AWSRegion                string              `json:"aws_region"`
	PegasusModelID           string              `json:"pegasus_model_id"`
	ClaudeModelID            string              `json:"claude_model_id"`
	StructurerProvider       string              `json:"structurer_provider"`
	S3Bucket                 string              `json:"s3_bucket"`
	Base64LimitMB            float64             `json:"base64_limit_mb"`
	EncodeTargetMB           int                 `json:"encode_target_mb"`
	VideoCompressionSettings CompressionSettings `json:"video_compression_settings"`
}

// Update is a partial AppConfig; nil fields are left unchanged.
type Update struct {
	AWSRegion                *string              `json:"aws_region"`
	PegasusModelID           *string              `json:"pegasus_model_id"`
	ClaudeModelID            *string              `json:"claude_model_id"`
	StructurerProvider       *string              `json:"structurer_provider"`
	VideoCompressionSettings *CompressionSettings `json:"video_compression_settings"`
}

// Config holds the live configuration behind a lock so PUT /api/config
// updates are visible to in-flight request handlers.
type Config struct {
	mu      sync.RWMutex
	current AppConfig
}

// Load builds a Config from environment variables, falling back to the
// defaults in constants.go. Call godotenv.Load beforehand if a .env file
// should be honored.
func Load() *Config {
	cfg := AppConfig{
		AWSRegion:          envOr("AWS_REGION", DefaultAWSRegion),
		PegasusModelID:     envOr("PEGASUS_MODEL_ID", DefaultPegasusModelID),
		ClaudeModelID:      envOr("CLAUDE_MODEL_ID", DefaultClaudeModelID),
		StructurerProvider: envOr("STRUCTURER_PROVIDER", DefaultStructurerProvider),
		S3Bucket:           envOr("VIDEO_ANALYSIS_BUCKET", DefaultS3Bucket),
		Base64LimitMB:      Base64LimitMB,
		EncodeTargetMB:     EncodeTargetMB,
		VideoCompressionSettings: CompressionSettings{
			MaxSizeMB:  EncodeTargetMB,
			CRF:        28,
			Preset:     "fast",
			Resolution: "854:480",
			Framerate:  12,
		},
	}
	if v := os.Getenv("ENCODE_TARGET_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EncodeTargetMB = n
			cfg.VideoCompressionSettings.MaxSizeMB = n
		}
	}
	return &Config{current: cfg}
}

// Snapshot returns a copy of the current configuration.
func (c *Config) Snapshot() AppConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Apply merges a partial update and returns the resulting configuration.
func (c *Config) Apply(u Update) AppConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u.AWSRegion != nil {
		c.current.AWSRegion = *u.AWSRegion
	}
	if u.PegasusModelID != nil {
		c.current.PegasusModelID = *u.PegasusModelID
	}
	if u.ClaudeModelID != nil {
		c.current.ClaudeModelID = *u.ClaudeModelID
	}
	if u.StructurerProvider != nil {
		c.current.StructurerProvider = *u.StructurerProvider
	}
	if u.VideoCompressionSettings != nil {
		c.current.VideoCompressionSettings = *u.VideoCompressionSettings
	}
	return c.current
}

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
