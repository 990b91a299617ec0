package clipboard

import (
	"context"
	"sync"
	"time"

	xclipboard "golang.design/x/clipboard"
)

// Watcher reports clipboard changes. The channel is closed when ctx ends.
type Watcher interface {
	Watch(ctx context.Context) <-chan WatchEvent
}

type Fingerprinter interface {
	Fingerprint() (string, error)
}

// PollWatcher samples the clipboard on a ticker and emits an event whenever its
// fingerprint differs from the last one seen. The first non-empty sample counts
// as a change, and an empty sample forgets the last one so that content copied
// again after the clipboard was cleared is reported.
//
// Copying identical content twice in a row leaves the fingerprint unchanged and
// is not reported. Use FormatWatcher where the OS keeps a change counter.
type PollWatcher struct {
	source   Fingerprinter
	interval time.Duration
}

func NewPollWatcher(source Fingerprinter, interval time.Duration) *PollWatcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &PollWatcher{source: source, interval: interval}
}

func (w *PollWatcher) Watch(ctx context.Context) <-chan WatchEvent {
	events := make(chan WatchEvent)

	go func() {
		defer close(events)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		var lastHash string
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			hash, err := w.source.Fingerprint()
			if err != nil {
				if !send(ctx, events, WatchEvent{Err: err}) {
					return
				}
				continue
			}
			if hash == "" {
				lastHash = ""
				continue
			}
			if hash == lastHash {
				continue
			}
			lastHash = hash
			if !send(ctx, events, WatchEvent{}) {
				return
			}
		}
	}()

	return events
}

// WatchFunc matches xclipboard.Watch.
type WatchFunc func(ctx context.Context, format xclipboard.Format) <-chan []byte

// FormatWatcher merges per-format change streams into one event stream. Backed
// by xclipboard.Watch it follows the OS change counter on Windows and macOS, so
// every copy is reported even when the content is identical to the last one.
type FormatWatcher struct {
	watch   WatchFunc
	formats []xclipboard.Format
}

func NewFormatWatcher(watch WatchFunc, formats ...xclipboard.Format) *FormatWatcher {
	if len(formats) == 0 {
		formats = []xclipboard.Format{xclipboard.FmtText, xclipboard.FmtImage}
	}
	return &FormatWatcher{watch: watch, formats: formats}
}

func (w *FormatWatcher) Watch(ctx context.Context) <-chan WatchEvent {
	events := make(chan WatchEvent)

	var wg sync.WaitGroup
	for _, format := range w.formats {
		changes := w.watch(ctx, format)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range changes {
				if !send(ctx, events, WatchEvent{}) {
					break
				}
			}
			// The source closes its channel once ctx ends; keep it from
			// blocking on a pending value until then.
			for range changes {
			}
		}()
	}

	go func() {
		wg.Wait()
		close(events)
	}()

	return events
}

func send(ctx context.Context, ch chan<- WatchEvent, ev WatchEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
