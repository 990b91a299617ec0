package clipboard

import (
	"testing"

	xclipboard "golang.design/x/clipboard"
)

func TestSystem_WriteFailureIsReported(t *testing.T) {
	var formats []xclipboard.Format
	s := &System{write: func(f xclipboard.Format, _ []byte) <-chan struct{} {
		formats = append(formats, f)
		return nil
	}}

	if err := s.WriteText("hello"); err == nil {
		t.Fatalf("expected error when the clipboard rejects text")
	}
	img := RawImage{Pixels: make([]byte, 4), Width: 1, Height: 1}
	if err := s.WriteImage(img); err == nil {
		t.Fatalf("expected error when the clipboard rejects an image")
	}
	if len(formats) != 2 || formats[0] != xclipboard.FmtText || formats[1] != xclipboard.FmtImage {
		t.Fatalf("unexpected writes %v", formats)
	}
	if s.Overwritten() != nil {
		t.Fatalf("failed writes must not replace the overwritten signal")
	}
}

func TestSystem_OverwrittenFollowsLastWrite(t *testing.T) {
	first, second := make(chan struct{}, 1), make(chan struct{}, 1)
	pending := []chan struct{}{first, second}
	s := &System{write: func(xclipboard.Format, []byte) <-chan struct{} {
		ch := pending[0]
		pending = pending[1:]
		return ch
	}}

	if err := s.WriteText("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteText("b"); err != nil {
		t.Fatal(err)
	}

	second <- struct{}{}
	select {
	case <-s.Overwritten():
	default:
		t.Fatalf("expected the signal of the latest write")
	}
}
