package contentstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/andrewrjohn/clipboard-plus/internal/util"
)

// FileStore keeps one PNG file per content identity in a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Store(ctx context.Context, pixels []byte, width, height int) (Result, error) {
	ref, err := identify(pixels, width, height)
	if err != nil {
		return Result{}, err
	}

	result := Result{Ref: ref, Width: width, Height: height}
	path := s.Location(ref)

	if existing, err := os.ReadFile(path); err == nil {
		if holds(existing, ref) {
			result.Size = int64(len(existing))
			result.AlreadyExists = true
			return result, nil
		}
		log.Printf("Replacing damaged image file %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Result{}, fmt.Errorf("failed to read image file: %w", err)
	}

	encoded, err := util.EncodePNG(pixels, width, height)
	if err != nil {
		return Result{}, err
	}

	// Images directory is created on demand.
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create images directory: %w", err)
	}
	if err := writeFileAtomic(path, encoded); err != nil {
		return Result{}, err
	}

	result.Size = int64(len(encoded))
	return result, nil
}

// holds reports whether data decodes to the pixels identified by ref. Files
// left truncated or rewritten outside the store fail this check.
func holds(data []byte, ref ContentRef) bool {
	pixels, _, _, err := util.DecodePNG(data)
	if err != nil {
		return false
	}
	return ContentID(util.HashPixels(pixels)) == ref.ID
}

func (s *FileStore) Load(ctx context.Context, ref ContentRef) ([]byte, error) {
	data, err := os.ReadFile(s.Location(ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.Key)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

func (s *FileStore) Remove(ctx context.Context, ref ContentRef) error {
	if err := os.Remove(s.Location(ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image file: %w", err)
	}
	return nil
}

func (s *FileStore) Location(ref ContentRef) string {
	return filepath.Join(s.dir, ref.Key)
}

func (s *FileStore) Root() string {
	return s.dir
}

func (s *FileStore) Close() error {
	return nil
}

// writeFileAtomic writes to a temp file in the target directory and renames it
// into place. Concurrent writers of the same key produce identical bytes, so
// whichever rename lands last is equivalent.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp image file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	for _, err := range []error{writeErr, syncErr, closeErr} {
		if err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("failed to write image file: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move image file into place: %w", err)
	}
	return nil
}
