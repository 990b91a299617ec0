package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/andrewrjohn/clipboard-plus/internal/database"
)

func TestPreview(t *testing.T) {
	long := strings.Repeat("é", 80)
	cases := []struct {
		name  string
		entry *database.Entry
		want  string
	}{
		{name: "collapses whitespace", entry: database.NewTextEntry("a\n\tb  c", 0, ""), want: "a b c"},
		{name: "truncates by rune", entry: database.NewTextEntry(long, 0, ""), want: strings.Repeat("é", 57) + "..."},
		{name: "image", entry: database.NewImageEntry("x.png", 64, 32, 10, 0, ""), want: "[image 64x32]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := preview(tc.entry); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
	if _, err := parseID("abc"); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestWaitReplaced(t *testing.T) {
	overwritten := make(chan struct{}, 1)
	overwritten <- struct{}{}
	if !waitReplaced(context.Background(), overwritten) {
		t.Fatalf("expected return once the clipboard is replaced")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if waitReplaced(ctx, make(chan struct{})) {
		t.Fatalf("expected return on cancellation without replacement")
	}
}
