package types

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxUploadBytes is the size ceiling for a single video (Pegasus limit).
const MaxUploadBytes = 2 * 1024 * 1024 * 1024

// AllowedExtensions is the video container allow-list shared by the
// upload endpoint, the S3 URI validator, and client-side checks.
var AllowedExtensions = []string{".mp4", ".mov", ".avi", ".webm"}

// AllowedExtension reports whether the filename carries one of the
// accepted video container extensions.
func AllowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Bucket names are DNS-compatible: lowercase, digits, dots, hyphens.
var s3URIPattern = regexp.MustCompile(`^s3://([a-z0-9][a-z0-9.\-]{1,61}[a-z0-9])/(.+)$`)

// ParseS3URI validates an s3://bucket/key URI against the shared
// constraints (lowercase bucket, key ending in an allowed extension)
// and returns its parts.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", fmt.Errorf("S3 URI must start with 's3://'")
	}
	m := s3URIPattern.FindStringSubmatch(uri)
	if m == nil {
		return "", "", fmt.Errorf("invalid S3 URI format: %s", uri)
	}
	bucket, key = m[1], m[2]
	if !AllowedExtension(key) {
		return "", "", fmt.Errorf("unsupported file format, use MP4, MOV, AVI, or WebM")
	}
	return bucket, key, nil
}

// VideoSource is the user-selected input: either a local file or an
// object-storage reference. Immutable once selected; replaced wholesale
// on the next selection.
type VideoSource struct {
	Path  string `json:"path,omitempty"`
	S3URI string `json:"s3_uri,omitempty"`
}

// Remote reports whether the source is an object-storage reference.
func (s VideoSource) Remote() bool { return s.S3URI != "" }

// Filename returns the display name of the source.
func (s VideoSource) Filename() string {
	if s.Remote() {
		return filepath.Base(s.S3URI)
	}
	return filepath.Base(s.Path)
}
