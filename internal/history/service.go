// Package history is the clipboard history engine: it decides whether observed
// content is new or a repeat, and serves the commands the front end invokes.
// Every operation runs under one mutex for its whole read-then-write sequence;
// change notifications are delivered after the mutex is released.
package history

import (
	"errors"
	"sync"
	"time"

	"github.com/andrewrjohn/clipboard-plus/internal/clipboard"
	"github.com/andrewrjohn/clipboard-plus/internal/contentstore"
	"github.com/andrewrjohn/clipboard-plus/internal/database"
)

var ErrNoClipboard = errors.New("clipboard is not available")

type Options struct {
	// Clipboard is used by Copy. Without it Copy returns ErrNoClipboard.
	Clipboard clipboard.Writer
	// PruneImages removes image payloads no longer referenced after deletions.
	PruneImages bool
	Now         func() time.Time
}

type Service struct {
	mu sync.Mutex

	repo        *database.Repository
	images      contentstore.Store
	clipboard   clipboard.Writer
	notifier    *Notifier
	pruneImages bool
	now         func() time.Time
}

func NewService(repo *database.Repository, images contentstore.Store, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:        repo,
		images:      images,
		clipboard:   opts.Clipboard,
		notifier:    NewNotifier(),
		pruneImages: opts.PruneImages,
		now:         now,
	}
}

// Subscribe registers fn to run after every committed history mutation.
func (s *Service) Subscribe(fn func()) (cancel func()) {
	return s.notifier.Subscribe(fn)
}

// mutate runs fn under the lock and notifies subscribers if it succeeded.
func (s *Service) mutate(fn func() error) error {
	s.mu.Lock()
	err := fn()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notifier.Notify()
	return nil
}

func (s *Service) timestamp(observed time.Time) int64 {
	if observed.IsZero() {
		observed = s.now()
	}
	return observed.UnixMilli()
}
