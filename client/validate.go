package client

import (
	"fmt"
	"os"

	"videolens/types"
)

// ValidateLocalFile runs the pre-flight checks a local video must pass
// before any bytes travel: the file exists, carries an accepted
// container extension, and fits under the upload ceiling.
func ValidateLocalFile(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("video file not accessible: %w", err)
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory, not a video file", path)
	}
	if !types.AllowedExtension(path) {
		return fmt.Errorf("unsupported file format, use MP4, MOV, AVI, or WebM")
	}
	if st.Size() > types.MaxUploadBytes {
		return fmt.Errorf("file too large (%.2fGB), maximum size is 2GB",
			float64(st.Size())/(1024*1024*1024))
	}
	return nil
}

// ValidateS3URIFormat checks an S3 reference locally, without asking
// the relay. Remote accessibility still needs Client.ValidateS3URI.
func ValidateS3URIFormat(uri string) error {
	_, _, err := types.ParseS3URI(uri)
	return err
}

// ValidateSource applies the local checks matching the source kind.
func ValidateSource(src types.VideoSource) error {
	if src.Remote() {
		return ValidateS3URIFormat(src.S3URI)
	}
	return ValidateLocalFile(src.Path)
}
