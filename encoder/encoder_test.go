package encoder

import (
	"testing"
	"time"

	"videolens/types"
)

func TestTargetBitrate(t *testing.T) {
	e := New(30)

	cases := []struct {
		name     string
		duration float64
		want     int
	}{
		// 30MB over 60s: 30*1024*1024*8/60 - 128000
		{"one minute", 60, 4194304 - 128000},
		// Long videos hit the floor.
		{"very long", 100000, 100000},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := e.targetBitrate(c.duration); got != c.want {
				t.Fatalf("targetBitrate(%v) = %d; want %d", c.duration, got, c.want)
			}
		})
	}
}

func TestOptimalResolution(t *testing.T) {
	cases := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{"already small", 640, 360, 640, 360},
		{"1080p landscape", 1920, 1080, 854, 480},
		{"portrait", 1080, 1920, 270, 480},
		{"square", 2000, 2000, 480, 480},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w, h := optimalResolution(c.w, c.h)
			if w != c.wantW || h != c.wantH {
				t.Fatalf("optimalResolution(%d, %d) = (%d, %d); want (%d, %d)",
					c.w, c.h, w, h, c.wantW, c.wantH)
			}
			if w%2 != 0 || h%2 != 0 {
				t.Fatalf("optimalResolution(%d, %d) returned odd dimension (%d, %d)", c.w, c.h, w, h)
			}
		})
	}
}

func TestProgressRegistry(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("missing"); ok {
		t.Fatalf("Get on empty registry reported an entry")
	}

	r.Set("f1", 30, "encoding", "Compressing: 30%")
	p, ok := r.Get("f1")
	if !ok {
		t.Fatalf("Get after Set found nothing")
	}
	want := types.Progress{Percentage: 30, Stage: "encoding", Message: "Compressing: 30%"}
	if p != want {
		t.Fatalf("Get = %+v; want %+v", p, want)
	}

	r.Forget("f1")
	if _, ok := r.Get("f1"); ok {
		t.Fatalf("entry survived Forget")
	}
}

func TestProgressRegistryForgetAfter(t *testing.T) {
	r := NewRegistry()
	r.Set("f1", 100, "done", "Encoding complete.")
	r.ForgetAfter("f1", 10*time.Millisecond)

	if _, ok := r.Get("f1"); !ok {
		t.Fatalf("entry cleared before the delay")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := r.Get("f1"); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("entry never cleared after ForgetAfter")
}
