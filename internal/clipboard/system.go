package clipboard

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	xclipboard "golang.design/x/clipboard"

	"github.com/andrewrjohn/clipboard-plus/internal/util"
)

var (
	initOnce sync.Once
	initErr  error
)

// System is the OS clipboard. Text that is empty is indistinguishable from no
// text at this layer and is reported as absent.
type System struct {
	write func(xclipboard.Format, []byte) <-chan struct{}

	mu          sync.Mutex
	overwritten <-chan struct{}
}

func NewSystem() (*System, error) {
	initOnce.Do(func() {
		initErr = xclipboard.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize clipboard: %w", initErr)
	}
	return &System{write: xclipboard.Write}, nil
}

func (s *System) ReadText() (string, bool, error) {
	data := xclipboard.Read(xclipboard.FmtText)
	if len(data) == 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

func (s *System) ReadImage() (RawImage, bool, error) {
	data := xclipboard.Read(xclipboard.FmtImage)
	if len(data) == 0 {
		return RawImage{}, false, nil
	}
	pixels, w, h, err := util.DecodePNG(data)
	if err != nil {
		return RawImage{}, false, fmt.Errorf("failed to read clipboard image: %w", err)
	}
	return RawImage{Pixels: pixels, Width: w, Height: h}, true, nil
}

func (s *System) WriteText(text string) error {
	return s.put(xclipboard.FmtText, []byte(text), "text")
}

func (s *System) WriteImage(img RawImage) error {
	encoded, err := util.EncodePNG(img.Pixels, img.Width, img.Height)
	if err != nil {
		return err
	}
	return s.put(xclipboard.FmtImage, encoded, "image")
}

func (s *System) put(format xclipboard.Format, data []byte, kind string) error {
	// A nil channel is how the clipboard library reports a failed write.
	changed := s.write(format, data)
	if changed == nil {
		return fmt.Errorf("failed to write %s to clipboard", kind)
	}
	s.mu.Lock()
	s.overwritten = changed
	s.mu.Unlock()
	return nil
}

// Overwritten receives once another program replaces the content this process
// last wrote. It is nil before the first successful write.
func (s *System) Overwritten() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overwritten
}

// OwnsSelection reports whether written content is served by this process and
// disappears when it exits, as with X11 selections.
func OwnsSelection() bool {
	return runtime.GOOS == "linux"
}

// NewSystemWatcher returns the change detector for the current platform.
// Windows and macOS expose a clipboard change counter; elsewhere the contents
// are polled every interval.
func NewSystemWatcher(system *System, interval time.Duration) Watcher {
	switch runtime.GOOS {
	case "windows", "darwin":
		return NewFormatWatcher(xclipboard.Watch, xclipboard.FmtText, xclipboard.FmtImage)
	default:
		return NewPollWatcher(system, interval)
	}
}

// Fingerprint hashes the raw clipboard contents without decoding images.
// An empty clipboard yields "".
func (s *System) Fingerprint() (string, error) {
	text := xclipboard.Read(xclipboard.FmtText)
	img := xclipboard.Read(xclipboard.FmtImage)
	if len(text) == 0 && len(img) == 0 {
		return "", nil
	}
	return util.Fingerprint(text, img), nil
}
