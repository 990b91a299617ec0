// Package contentstore persists image payloads under keys derived from a hash
// of their pixels, so identical images always share one stored object.
package contentstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andrewrjohn/clipboard-plus/internal/util"
)

const imageExt = ".png"

var (
	ErrInvalidImage = errors.New("invalid image")
	ErrNotFound     = errors.New("content not found")
)

// ContentID is the content identity of an image: the hex hash of its raw pixels.
type ContentID string

// ContentRef names a stored payload. Key is what the history ledger records;
// where the payload actually lives is up to the Store (see Store.Location).
type ContentRef struct {
	ID  ContentID
	Key string
}

func RefFor(id ContentID) ContentRef {
	return ContentRef{ID: id, Key: string(id) + imageExt}
}

// ParseRef recovers a ContentRef from a ledger key such as "<hash>.png".
func ParseRef(key string) (ContentRef, error) {
	id := strings.TrimSuffix(key, imageExt)
	if id == "" || id == key || strings.ContainsAny(id, `/\.`) {
		return ContentRef{}, fmt.Errorf("malformed content key %q", key)
	}
	return ContentRef{ID: ContentID(id), Key: key}, nil
}

type Result struct {
	Ref           ContentRef
	Width         int
	Height        int
	Size          int64
	AlreadyExists bool
}

type Store interface {
	// Store hashes pixels and persists them PNG-encoded unless an object
	// with the same identity already exists.
	Store(ctx context.Context, pixels []byte, width, height int) (Result, error)
	Load(ctx context.Context, ref ContentRef) ([]byte, error)
	// Remove deletes a payload. A missing payload is not an error.
	Remove(ctx context.Context, ref ContentRef) error
	Location(ref ContentRef) string
	Root() string
	Close() error
}

// identify validates the buffer and derives its reference.
func identify(pixels []byte, width, height int) (ContentRef, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return ContentRef{}, fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidImage, len(pixels), width, height)
	}
	return RefFor(ContentID(util.HashPixels(pixels))), nil
}
