package utils

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOptimizeImageFitsBounds(t *testing.T) {
	u := New()
	out, err := u.OptimizeImage(pngImage(t, 400, 200), 100, 100, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not decodable: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("got %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestValidateImage(t *testing.T) {
	u := New()
	if err := u.ValidateImage(pngImage(t, 4, 4)); err != nil {
		t.Errorf("valid png rejected: %v", err)
	}
	if err := u.ValidateImage(nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
	if err := u.ValidateImage([]byte("plain text")); !errors.Is(err, ErrNotAnImage) {
		t.Errorf("expected ErrNotAnImage, got %v", err)
	}
}

func TestNewULIDFromTimestampIsUnique(t *testing.T) {
	u := New()
	now := time.Now()
	a, err := u.NewULIDFromTimestamp(now)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := u.NewULIDFromTimestamp(now)
	if a == b || len(a) != 26 {
		t.Errorf("unexpected ids %q %q", a, b)
	}
}
