package frames

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"VisionGuide/internal/entity"
)

var (
	ErrBatchNotFound  = errors.New("frame batch not found")
	ErrInvalidBatchID = errors.New("invalid batch id")
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type IFrames interface {
	ListBatches() ([]entity.FrameBatch, error)
	Frames(batchID string) ([]entity.Frame, error)
	Load(frame entity.Frame) ([]byte, error)
	SaveAudio(batchID string, index int, format string, data []byte) (string, error)
	SaveReport(batchID, fileName string, data []byte) (string, error)
}

// Store reads extracted frames from <root>/frames/<batch> and writes
// artefacts to <root>/audio/<batch> and <root>/reports/<batch>.
type Store struct {
	root string
}

func New(root string) *Store {
	if root == "" {
		root = "outputs"
	}
	return &Store{root: root}
}

func NewFromEnv() *Store {
	return New(os.Getenv("OUTPUT_PATH"))
}

func (s *Store) framesDir() string {
	return filepath.Join(s.root, "frames")
}

func (s *Store) ListBatches() ([]entity.FrameBatch, error) {
	entries, err := os.ReadDir(s.framesDir())
	if errors.Is(err, os.ErrNotExist) {
		return []entity.FrameBatch{}, nil
	}
	if err != nil {
		return nil, err
	}

	batches := make([]entity.FrameBatch, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		frames, err := s.Frames(entry.Name())
		if err != nil {
			return nil, err
		}
		batches = append(batches, entity.FrameBatch{
			Name:       entry.Name(),
			FrameCount: len(frames),
			CreatedAt:  info.ModTime(),
		})
	}

	sort.Slice(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})

	return batches, nil
}

// Frames lists the images of a batch ordered by file name. Frame data is
// not read.
func (s *Store) Frames(batchID string) ([]entity.Frame, error) {
	if err := validateBatchID(batchID); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.framesDir(), batchID)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	frames := make([]entity.Frame, len(names))
	for i, name := range names {
		frames[i] = entity.Frame{
			BatchID: batchID,
			Index:   i,
			Path:    filepath.Join(dir, name),
		}
	}
	return frames, nil
}

func (s *Store) Load(frame entity.Frame) ([]byte, error) {
	if len(frame.Data) > 0 {
		return frame.Data, nil
	}
	data, err := os.ReadFile(frame.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %d: %w", frame.Index, err)
	}
	return data, nil
}

func (s *Store) SaveAudio(batchID string, index int, format string, data []byte) (string, error) {
	if err := validateBatchID(batchID); err != nil {
		return "", err
	}
	return s.write(filepath.Join(s.root, "audio", batchID), fmt.Sprintf("frame_%d.%s", index, format), data)
}

func (s *Store) SaveReport(batchID, fileName string, data []byte) (string, error) {
	if err := validateBatchID(batchID); err != nil {
		return "", err
	}
	return s.write(filepath.Join(s.root, "reports", batchID), fileName, data)
}

func (s *Store) write(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func validateBatchID(batchID string) error {
	if batchID == "" || batchID == "." || batchID == ".." || strings.ContainsAny(batchID, `/\`) {
		return ErrInvalidBatchID
	}
	return nil
}
