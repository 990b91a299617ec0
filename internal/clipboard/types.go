package clipboard

import (
	"context"
	"time"
)

// RawImage is an uncompressed RGBA image as read from or written to the clipboard.
type RawImage struct {
	Pixels []byte
	Width  int
	Height int
}

type Reader interface {
	// ReadText reports ok=false when the clipboard holds no text.
	ReadText() (text string, ok bool, err error)
	ReadImage() (img RawImage, ok bool, err error)
}

type Writer interface {
	WriteText(text string) error
	WriteImage(img RawImage) error
}

type Clipboard interface {
	Reader
	Writer
}

// AppLocator reports the application owning the clipboard. Best effort.
type AppLocator interface {
	ActiveAppName() (string, bool)
}

// Meta describes a single observed clipboard change.
type Meta struct {
	SourceApp  string
	ObservedAt time.Time
}

// Recorder receives every observed clipboard payload.
type Recorder interface {
	RecordText(ctx context.Context, text string, meta Meta) error
	RecordImage(ctx context.Context, img RawImage, meta Meta) error
}

// Capture is what the monitor read off the clipboard for one change event.
type Capture struct {
	Text  *string
	Image *RawImage
	Meta  Meta
}

type WatchEvent struct {
	Err error
}
