package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// UploadInfo is the relay's answer to a successful upload.
type UploadInfo struct {
	FileID           string  `json:"fileId"`
	Filename         string  `json:"filename"`
	OriginalSizeMB   float64 `json:"original_size_mb"`
	ProcessingMethod string  `json:"processing_method"`
	NeedsEncoding    bool    `json:"needs_encoding"`
}

// ProgressFunc receives upload progress as a percentage of bytes sent.
type ProgressFunc func(pct int)

// UploadVideo streams a local video file to the relay as multipart form
// data. The file is piped rather than buffered, so a 2GB upload never
// lands in memory. onProgress may be nil.
func (c *Client) UploadVideo(ctx context.Context, path string, onProgress ProgressFunc) (*UploadInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat video: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("video", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		src := io.Reader(f)
		if onProgress != nil {
			src = &progressReader{r: f, total: st.Size(), fn: onProgress}
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	var info UploadInfo
	if err := decodeEnvelope(resp, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// progressReader counts bytes as they are read out of the source file.
type progressReader struct {
	r     io.Reader
	total int64
	sent  int64
	last  int
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.sent += int64(n)
	if p.total > 0 {
		pct := int(p.sent * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct != p.last {
			p.last = pct
			p.fn(pct)
		}
	}
	return n, err
}
