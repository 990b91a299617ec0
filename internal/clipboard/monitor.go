package clipboard

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const captureBuffer = 100

// Monitor turns watcher events into captures and hands them, in order, to a
// Recorder running on its own goroutine. Clipboard read errors are logged and
// never stop the loop.
type Monitor struct {
	reader   Reader
	apps     AppLocator
	watcher  Watcher
	recorder Recorder
	verbose  bool

	now       func() time.Time
	isRunning atomic.Bool
	wg        sync.WaitGroup
}

func NewMonitor(reader Reader, apps AppLocator, watcher Watcher, recorder Recorder, verbose bool) *Monitor {
	if apps == nil {
		apps = NoopLocator{}
	}
	return &Monitor{
		reader:   reader,
		apps:     apps,
		watcher:  watcher,
		recorder: recorder,
		verbose:  verbose,
		now:      time.Now,
	}
}

func (m *Monitor) Start(ctx context.Context) error {
	if !m.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("monitor is already running")
	}

	captures := make(chan Capture, captureBuffer)
	events := m.watcher.Watch(ctx)

	m.wg.Add(2)
	go m.watchLoop(ctx, events, captures)
	go m.recordLoop(ctx, captures)

	log.Println("Clipboard monitor started")
	return nil
}

// Wait blocks until both monitor goroutines have exited.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

func (m *Monitor) debugf(format string, args ...any) {
	if !m.verbose {
		return
	}
	log.Printf(format, args...)
}

func (m *Monitor) watchLoop(ctx context.Context, events <-chan WatchEvent, captures chan<- Capture) {
	defer m.wg.Done()
	defer close(captures)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Err != nil {
				log.Printf("Clipboard error: %v", ev.Err)
				continue
			}

			capture := m.capture()
			if capture.Text == nil && capture.Image == nil {
				continue
			}
			select {
			case captures <- capture:
			case <-ctx.Done():
				return
			}
		}
	}
}

// capture reads the source application, then text, then image. A failure on
// one modality does not prevent reading the other.
func (m *Monitor) capture() Capture {
	capture := Capture{Meta: Meta{ObservedAt: m.now()}}

	if name, ok := m.apps.ActiveAppName(); ok {
		capture.Meta.SourceApp = name
	}

	text, ok, err := m.reader.ReadText()
	switch {
	case err != nil:
		log.Printf("Failed to read clipboard text: %v", err)
	case ok:
		capture.Text = &text
	}

	img, ok, err := m.reader.ReadImage()
	switch {
	case err != nil:
		log.Printf("Failed to read clipboard image: %v", err)
	case ok:
		capture.Image = &img
	}

	return capture
}

func (m *Monitor) recordLoop(ctx context.Context, captures <-chan Capture) {
	defer m.wg.Done()

	// Captures already taken are recorded even while shutting down.
	ctx = context.WithoutCancel(ctx)
	for capture := range captures {
		m.process(ctx, capture)
	}
	m.isRunning.Store(false)
	log.Println("Clipboard monitor stopped")
}

func (m *Monitor) process(ctx context.Context, capture Capture) {
	if capture.Text != nil {
		if err := m.recorder.RecordText(ctx, *capture.Text, capture.Meta); err != nil {
			log.Printf("Failed to save clipboard text: %v", err)
		} else {
			m.debugf("Saved clipboard text (%d bytes) from %q", len(*capture.Text), capture.Meta.SourceApp)
		}
	}

	if capture.Image != nil {
		if err := m.recorder.RecordImage(ctx, *capture.Image, capture.Meta); err != nil {
			log.Printf("Failed to save clipboard image: %v", err)
		} else {
			m.debugf("Saved clipboard image %dx%d from %q", capture.Image.Width, capture.Image.Height, capture.Meta.SourceApp)
		}
	}
}
