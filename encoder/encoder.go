package encoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ProgressFunc receives encode progress ticks.
type ProgressFunc func(percentage int, stage, message string)

// Result summarizes a finished encode pass.
type Result struct {
	OriginalSizeMB   float64 `json:"original_size_mb"`
	EncodedSizeMB    float64 `json:"encoded_size_mb"`
	CompressionRatio float64 `json:"compression_ratio"`
	Duration         float64 `json:"duration"`
	Resolution       string  `json:"resolution,omitempty"`
	TargetBitrate    int     `json:"target_bitrate,omitempty"`
}

// Encoder re-encodes videos down to a target size so they fit the
// model's input limits.
type Encoder struct {
	targetSizeMB int
}

// New creates an encoder targeting the given output size in megabytes.
func New(targetSizeMB int) *Encoder {
	return &Encoder{targetSizeMB: targetSizeMB}
}

type videoInfo struct {
	Duration float64
	Size     int64
	Width    int
	Height   int
}

// probe extracts duration, size, and dimensions via ffprobe.
func probe(inputPath string) (*videoInfo, error) {
	raw, err := ffmpeg.Probe(inputPath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var parsed struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
			Size     string `json:"size"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &videoInfo{}
	fmt.Sscanf(parsed.Format.Duration, "%f", &info.Duration)
	fmt.Sscanf(parsed.Format.Size, "%d", &info.Size)
	for _, s := range parsed.Streams {
		if s.CodecType == "video" {
			info.Width, info.Height = s.Width, s.Height
			break
		}
	}
	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("no video stream found in %s", inputPath)
	}
	if info.Duration <= 0 {
		return nil, fmt.Errorf("could not determine duration of %s", inputPath)
	}
	return info, nil
}

// targetBitrate computes the video bitrate (bps) that lands the output
// near the target size, reserving 128kbps for audio. Floor of 100kbps.
func (e *Encoder) targetBitrate(duration float64) int {
	const audioBitrate = 128 * 1000
	total := float64(e.targetSizeMB*1024*1024*8) / duration
	video := total - audioBitrate
	if video < 100000 {
		video = 100000
	}
	return int(video)
}

// optimalResolution caps the output at 854x480, keeping aspect ratio and
// forcing even dimensions as libx264 requires.
func optimalResolution(width, height int) (int, int) {
	const maxWidth, maxHeight = 854, 480
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	aspect := float64(width) / float64(height)
	var w, h int
	if aspect > 1 {
		w = maxWidth
		h = int(float64(maxWidth) / aspect)
	} else {
		h = maxHeight
		w = int(float64(maxHeight) * aspect)
	}
	return w - w%2, h - h%2
}

// Encode re-encodes inputPath into outputPath, reporting progress through
// the callback. Files already at or under the target size are copied.
func (e *Encoder) Encode(ctx context.Context, inputPath, outputPath string, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(int, string, string) {}
	}

	progress(10, "probing", "Reading video properties...")
	info, err := probe(inputPath)
	if err != nil {
		progress(0, "error", err.Error())
		return nil, err
	}

	originalMB := float64(info.Size) / (1024 * 1024)
	targetBytes := int64(e.targetSizeMB) * 1024 * 1024

	if info.Size <= targetBytes {
		progress(50, "copying", "Already at optimal size, copying...")
		if err := copyFile(inputPath, outputPath); err != nil {
			progress(0, "error", err.Error())
			return nil, err
		}
		progress(100, "done", "Encoding complete.")
		return &Result{
			OriginalSizeMB:   originalMB,
			EncodedSizeMB:    originalMB,
			CompressionRatio: 1.0,
			Duration:         info.Duration,
		}, nil
	}

	progress(20, "computing", "Calculating encode parameters...")
	bitrate := e.targetBitrate(info.Duration)
	w, h := optimalResolution(info.Width, info.Height)

	progress(30, "encoding", "Compressing with ffmpeg...")
	done := make(chan error, 1)
	go func() {
		done <- ffmpeg.Input(inputPath).
			Output(outputPath, ffmpeg.KwArgs{
				"c:v":      "libx264",
				"preset":   "fast",
				"crf":      "28",
				"maxrate":  fmt.Sprintf("%d", bitrate),
				"bufsize":  fmt.Sprintf("%d", bitrate*2),
				"vf":       fmt.Sprintf("scale=%d:%d", w, h),
				"c:a":      "aac",
				"b:a":      "128k",
				"movflags": "+faststart",
			}).
			OverWriteOutput().
			Run()
	}()

	// ffmpeg gives no usable progress on this path, so advance the bar
	// in steps until the process exits.
	pct := 30
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			if err != nil {
				progress(0, "error", fmt.Sprintf("Encoding failed: %v", err))
				return nil, fmt.Errorf("ffmpeg failed: %w", err)
			}
			return e.finish(outputPath, info, originalMB, bitrate, w, h, progress)
		case <-ticker.C:
			if pct < 90 {
				pct += 5
				progress(pct, "encoding", fmt.Sprintf("Compressing: %d%%", pct))
			}
		case <-ctx.Done():
			progress(0, "error", "Encoding cancelled")
			return nil, ctx.Err()
		}
	}
}

func (e *Encoder) finish(outputPath string, info *videoInfo, originalMB float64, bitrate, w, h int, progress ProgressFunc) (*Result, error) {
	progress(95, "verifying", "Checking encode output...")

	st, err := os.Stat(outputPath)
	if err != nil {
		progress(0, "error", "Output file was not created")
		return nil, fmt.Errorf("output file was not created: %w", err)
	}

	encodedMB := float64(st.Size()) / (1024 * 1024)
	ratio := 1.0
	if st.Size() > 0 {
		ratio = float64(info.Size) / float64(st.Size())
	}

	progress(100, "done", "Encoding complete.")
	return &Result{
		OriginalSizeMB:   originalMB,
		EncodedSizeMB:    encodedMB,
		CompressionRatio: ratio,
		Duration:         info.Duration,
		Resolution:       fmt.Sprintf("%dx%d", w, h),
		TargetBitrate:    bitrate,
	}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
