package utils

import (
	"bytes"
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"
)

var (
	ErrEmptyImage    = errors.New("no image data")
	ErrImageTooLarge = errors.New("image size exceeds limit")
	ErrNotAnImage    = errors.New("payload is not an image")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImage(data []byte) error
	OptimizeImage(imageData []byte, maxWidth, maxHeight int, quality int) ([]byte, error)
}

type utils struct {
	maxFileSize int
}

func New() IUtils {
	return &utils{
		maxFileSize: 5 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImage(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyImage
	}

	if len(data) > u.maxFileSize {
		return ErrImageTooLarge
	}

	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return ErrNotAnImage
	}

	return nil
}

// OptimizeImage shrinks the image to fit maxWidth x maxHeight, keeping the
// aspect ratio, and re-encodes it as JPEG. Smaller images are only
// re-encoded.
func (u *utils) OptimizeImage(imageData []byte, maxWidth, maxHeight int, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if maxWidth > 0 && maxHeight > 0 && (bounds.Dx() > maxWidth || bounds.Dy() > maxHeight) {
		img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
