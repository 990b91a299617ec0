package util

import (
	"bytes"
	"errors"
	"testing"
)

func solidPixels(w, h int, r, g, b byte) []byte {
	out := make([]byte, 0, w*h*4)
	for i := 0; i < w*h; i++ {
		out = append(out, r, g, b, 0xff)
	}
	return out
}

func TestHashPixels_Deterministic(t *testing.T) {
	a := solidPixels(8, 8, 10, 20, 30)
	b := solidPixels(8, 8, 10, 20, 30)
	if HashPixels(a) != HashPixels(b) {
		t.Fatalf("expected identical pixels to hash identically")
	}
	if HashPixels(a) == HashPixels(solidPixels(8, 8, 10, 20, 31)) {
		t.Fatalf("expected different pixels to hash differently")
	}
	if len(HashPixels(a)) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(HashPixels(a)))
	}
}

func TestFingerprint_SeparatesTextAndImage(t *testing.T) {
	if Fingerprint([]byte("ab"), []byte("c")) == Fingerprint([]byte("a"), []byte("bc")) {
		t.Fatalf("expected text/image boundary to be part of the fingerprint")
	}
}

func TestPNGRoundTrip(t *testing.T) {
	pixels := solidPixels(4, 3, 200, 100, 50)
	encoded, err := EncodePNG(pixels, 4, 3)
	if err != nil {
		t.Fatal(err)
	}

	decoded, w, h, err := DecodePNG(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if w != 4 || h != 3 {
		t.Fatalf("unexpected dimensions %dx%d", w, h)
	}
	if !bytes.Equal(decoded, pixels) {
		t.Fatalf("decoded pixels differ from source")
	}
}

func TestEncodePNG_RejectsMismatchedBuffer(t *testing.T) {
	_, err := EncodePNG(make([]byte, 10), 4, 4)
	if !errors.Is(err, ErrPixelBufferSize) {
		t.Fatalf("expected ErrPixelBufferSize, got %v", err)
	}
}

func TestDecodePNG_Garbage(t *testing.T) {
	if _, _, _, err := DecodePNG([]byte("not a png")); err == nil {
		t.Fatalf("expected decode error")
	}
}
