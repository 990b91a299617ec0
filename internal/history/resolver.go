package history

import (
	"context"
	"fmt"

	"github.com/andrewrjohn/clipboard-plus/internal/clipboard"
	"github.com/andrewrjohn/clipboard-plus/internal/database"
)

// RecordText stores text the first time it is seen and moves the existing
// entry to the top on every repeat. Empty text is recorded like any other.
func (s *Service) RecordText(ctx context.Context, text string, meta clipboard.Meta) error {
	ts := s.timestamp(meta.ObservedAt)

	return s.mutate(func() error {
		existing, found, err := s.repo.FindByText(ctx, text)
		if err != nil {
			return err
		}
		if found {
			_, err := s.repo.Touch(ctx, existing.ID, ts)
			return err
		}
		return s.repo.Insert(ctx, database.NewTextEntry(text, ts, meta.SourceApp))
	})
}

// RecordImage content-addresses the pixels, then inserts or touches the entry
// referencing them. Size, dimensions and source app of an existing entry are
// left as first recorded.
func (s *Service) RecordImage(ctx context.Context, img clipboard.RawImage, meta clipboard.Meta) error {
	ts := s.timestamp(meta.ObservedAt)

	return s.mutate(func() error {
		stored, err := s.images.Store(ctx, img.Pixels, img.Width, img.Height)
		if err != nil {
			return fmt.Errorf("failed to store image: %w", err)
		}

		existing, found, err := s.repo.FindByImageRef(ctx, stored.Ref.Key)
		if err != nil {
			return err
		}
		if found {
			_, err := s.repo.Touch(ctx, existing.ID, ts)
			return err
		}

		entry := database.NewImageEntry(stored.Ref.Key, stored.Width, stored.Height, stored.Size, ts, meta.SourceApp)
		return s.repo.Insert(ctx, entry)
	})
}
