package history

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/andrewrjohn/clipboard-plus/internal/clipboard"
	"github.com/andrewrjohn/clipboard-plus/internal/contentstore"
	"github.com/andrewrjohn/clipboard-plus/internal/database"
	"github.com/andrewrjohn/clipboard-plus/internal/util"
)

const dayMs = 24 * 60 * 60 * 1000

type Stats struct {
	TotalSizeBytes int64  `json:"size_bytes"`
	StoragePath    string `json:"storage_path"`
	ImagesPath     string `json:"images_path"`
	Entries        int    `json:"entries"`
}

func (s *Service) List(ctx context.Context) ([]*database.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.ListAll(ctx)
}

// Copy writes the entry back to the clipboard and moves it to the top. The
// entry is touched before the clipboard is written and restored if the write
// fails, so a failed copy leaves both the clipboard and the entry as they were.
func (s *Service) Copy(ctx context.Context, id int64) (int64, error) {
	if s.clipboard == nil {
		return 0, ErrNoClipboard
	}

	var ts int64
	err := s.mutate(func() error {
		entry, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		var write func() error
		switch {
		case entry.IsText():
			write = func() error { return s.clipboard.WriteText(*entry.Text) }
		case entry.IsImage():
			img, err := s.loadImage(ctx, *entry.ImageRef)
			if err != nil {
				return err
			}
			write = func() error { return s.clipboard.WriteImage(img) }
		default:
			return fmt.Errorf("%w: id %d", database.ErrInvalidEntry, id)
		}

		ts = s.now().UnixMilli()
		previous, err := s.repo.Touch(ctx, id, ts)
		if err != nil {
			return err
		}
		if err := write(); err != nil {
			if _, restoreErr := s.repo.Touch(ctx, id, previous); restoreErr != nil {
				log.Printf("Failed to restore timestamp of item %d: %v", id, restoreErr)
			}
			return fmt.Errorf("failed to copy item %d to clipboard: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return ts, nil
}

func (s *Service) loadImage(ctx context.Context, key string) (clipboard.RawImage, error) {
	ref, err := contentstore.ParseRef(key)
	if err != nil {
		return clipboard.RawImage{}, err
	}
	data, err := s.images.Load(ctx, ref)
	if err != nil {
		return clipboard.RawImage{}, fmt.Errorf("failed to load image: %w", err)
	}
	pixels, w, h, err := util.DecodePNG(data)
	if err != nil {
		return clipboard.RawImage{}, fmt.Errorf("failed to decode image %s: %w", key, err)
	}
	return clipboard.RawImage{Pixels: pixels, Width: w, Height: h}, nil
}

// Delete removes one entry. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.mutate(func() error {
		var refs []string
		entry, err := s.repo.GetByID(ctx, id)
		switch {
		case errors.Is(err, database.ErrNotFound):
		case err != nil:
			return err
		case entry.IsImage():
			refs = append(refs, *entry.ImageRef)
		}

		if _, err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		s.prune(ctx, refs)
		return nil
	})
}

func (s *Service) ClearAll(ctx context.Context) (int64, error) {
	return s.deleteBefore(ctx, math.MaxInt64, true)
}

// PurgeOlderThan removes entries last touched more than days ago.
func (s *Service) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("days must not be negative, got %d", days)
	}
	cutoff := s.now().UnixMilli() - int64(days)*dayMs
	return s.deleteBefore(ctx, cutoff, false)
}

func (s *Service) deleteBefore(ctx context.Context, cutoff int64, all bool) (int64, error) {
	var removed int64
	err := s.mutate(func() error {
		var refs []string
		if s.pruneImages {
			var err error
			if refs, err = s.repo.ImageRefsBefore(ctx, cutoff); err != nil {
				return err
			}
		}

		var err error
		if all {
			removed, err = s.repo.DeleteAll(ctx)
		} else {
			removed, err = s.repo.DeleteOlderThan(ctx, cutoff)
		}
		if err != nil {
			return err
		}
		s.prune(ctx, refs)
		return nil
	})
	return removed, err
}

// prune drops image payloads that no remaining entry references. The ledger
// change has already committed, so failures are only logged.
func (s *Service) prune(ctx context.Context, refs []string) {
	if !s.pruneImages {
		return
	}
	for _, key := range refs {
		if _, found, err := s.repo.FindByImageRef(ctx, key); err != nil || found {
			if err != nil {
				log.Printf("Failed to check image references for %s: %v", key, err)
			}
			continue
		}
		ref, err := contentstore.ParseRef(key)
		if err != nil {
			log.Printf("Skipping malformed image reference %q: %v", key, err)
			continue
		}
		if err := s.images.Remove(ctx, ref); err != nil {
			log.Printf("Failed to remove orphaned image %s: %v", key, err)
		}
	}
}

func (s *Service) UsageStats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.repo.SumSizeBytes(ctx)
	if err != nil {
		return Stats{}, err
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalSizeBytes: total,
		StoragePath:    s.repo.Path(),
		ImagesPath:     s.images.Root(),
		Entries:        count,
	}, nil
}
