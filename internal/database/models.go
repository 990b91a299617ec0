package database

import (
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

var ErrInvalidEntry = errors.New("invalid history entry")

// Entry is one row of clipboard history. Exactly one of Text and ImageRef is set.
type Entry struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	ID          int64   `bun:"id,pk,autoincrement" json:"id"`
	Text        *string `bun:"text" json:"text,omitempty"`
	ImageRef    *string `bun:"image_ref" json:"image_ref,omitempty"`
	ImageWidth  *int    `bun:"image_width" json:"image_width,omitempty"`
	ImageHeight *int    `bun:"image_height" json:"image_height,omitempty"`
	Timestamp   int64   `bun:"timestamp,notnull" json:"timestamp"`
	SizeBytes   int64   `bun:"size_bytes,notnull" json:"size_bytes"`
	SourceApp   *string `bun:"source_app" json:"source_app,omitempty"`
}

func (e *Entry) IsText() bool {
	return e.Text != nil
}

func (e *Entry) IsImage() bool {
	return e.ImageRef != nil
}

func (e *Entry) Validate() error {
	switch {
	case e.Text != nil && e.ImageRef != nil:
		return fmt.Errorf("%w: both text and image set", ErrInvalidEntry)
	case e.Text == nil && e.ImageRef == nil:
		return fmt.Errorf("%w: neither text nor image set", ErrInvalidEntry)
	case e.ImageRef != nil && (e.ImageWidth == nil || e.ImageHeight == nil):
		return fmt.Errorf("%w: image without dimensions", ErrInvalidEntry)
	case e.Text != nil && (e.ImageWidth != nil || e.ImageHeight != nil):
		return fmt.Errorf("%w: text with image dimensions", ErrInvalidEntry)
	}
	return nil
}

func NewTextEntry(text string, timestamp int64, sourceApp string) *Entry {
	return &Entry{
		Text:      &text,
		Timestamp: timestamp,
		SizeBytes: int64(len(text)),
		SourceApp: optional(sourceApp),
	}
}

func NewImageEntry(ref string, width, height int, size int64, timestamp int64, sourceApp string) *Entry {
	return &Entry{
		ImageRef:    &ref,
		ImageWidth:  &width,
		ImageHeight: &height,
		Timestamp:   timestamp,
		SizeBytes:   size,
		SourceApp:   optional(sourceApp),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
