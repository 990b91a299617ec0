package database

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "clipboard.db"))
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_InsertAndFind(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	text := NewTextEntry("hello", 1000, "Terminal")
	if err := repo.Insert(ctx, text); err != nil {
		t.Fatal(err)
	}
	if text.ID == 0 {
		t.Fatalf("expected ID to be assigned")
	}

	img := NewImageEntry("abc.png", 64, 64, 512, 2000, "")
	if err := repo.Insert(ctx, img); err != nil {
		t.Fatal(err)
	}

	got, ok, err := repo.FindByText(ctx, "hello")
	if err != nil || !ok {
		t.Fatalf("FindByText: ok=%v err=%v", ok, err)
	}
	if got.ID != text.ID || *got.Text != "hello" || got.ImageRef != nil || got.SizeBytes != 5 {
		t.Fatalf("unexpected text entry %+v", got)
	}
	if got.SourceApp == nil || *got.SourceApp != "Terminal" {
		t.Fatalf("expected source app Terminal, got %v", got.SourceApp)
	}

	got, ok, err = repo.FindByImageRef(ctx, "abc.png")
	if err != nil || !ok {
		t.Fatalf("FindByImageRef: ok=%v err=%v", ok, err)
	}
	if got.Text != nil || *got.ImageWidth != 64 || *got.ImageHeight != 64 || got.SourceApp != nil {
		t.Fatalf("unexpected image entry %+v", got)
	}

	if _, ok, err := repo.FindByText(ctx, "HELLO"); err != nil || ok {
		t.Fatalf("text identity must be byte exact: ok=%v err=%v", ok, err)
	}
}

func TestRepository_EmptyTextIsContent(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if err := repo.Insert(ctx, NewTextEntry("", 1, "")); err != nil {
		t.Fatal(err)
	}
	got, ok, err := repo.FindByText(ctx, "")
	if err != nil || !ok {
		t.Fatalf("expected empty text entry, ok=%v err=%v", ok, err)
	}
	if got.Text == nil || *got.Text != "" {
		t.Fatalf("expected empty, non-nil text, got %v", got.Text)
	}
}

func TestRepository_InsertRejectsInvalidEntries(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	text := "x"
	ref := "r.png"
	w, h := 1, 1
	cases := []struct {
		name  string
		entry *Entry
	}{
		{name: "neither", entry: &Entry{Timestamp: 1}},
		{name: "both", entry: &Entry{Text: &text, ImageRef: &ref, ImageWidth: &w, ImageHeight: &h}},
		{name: "image without dimensions", entry: &Entry{ImageRef: &ref}},
		{name: "text with dimensions", entry: &Entry{Text: &text, ImageWidth: &w, ImageHeight: &h}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := repo.Insert(ctx, tc.entry); !errors.Is(err, ErrInvalidEntry) {
				t.Fatalf("expected ErrInvalidEntry, got %v", err)
			}
		})
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected no rows, got %d", n)
	}
}

func TestRepository_TouchReturnsPrevious(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	e := NewTextEntry("a", 100, "")
	if err := repo.Insert(ctx, e); err != nil {
		t.Fatal(err)
	}

	prev, err := repo.Touch(ctx, e.ID, 250)
	if err != nil {
		t.Fatal(err)
	}
	if prev != 100 {
		t.Fatalf("expected previous 100, got %d", prev)
	}

	got, err := repo.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Timestamp != 250 || got.SizeBytes != 1 {
		t.Fatalf("unexpected entry after touch %+v", got)
	}

	if _, err := repo.Touch(ctx, 9999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_ListOrdering(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for _, e := range []*Entry{
		NewTextEntry("old", 10, ""),
		NewTextEntry("tie-first", 20, ""),
		NewTextEntry("tie-second", 20, ""),
		NewTextEntry("new", 30, ""),
	} {
		if err := repo.Insert(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	items, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"new", "tie-second", "tie-first", "old"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, w := range want {
		if *items[i].Text != w {
			t.Fatalf("position %d: expected %q, got %q", i, w, *items[i].Text)
		}
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].Timestamp < items[i].Timestamp {
			t.Fatalf("ordering violated at %d", i)
		}
	}
}

func TestRepository_Deletes(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	a := NewTextEntry("a", 10, "")
	b := NewImageEntry("b.png", 1, 1, 70, 20, "")
	c := NewTextEntry("ccc", 30, "")
	for _, e := range []*Entry{a, b, c} {
		if err := repo.Insert(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	total, err := repo.SumSizeBytes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1+70+3 {
		t.Fatalf("expected 74 bytes, got %d", total)
	}

	refs, err := repo.ImageRefsBefore(ctx, 25)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0] != "b.png" {
		t.Fatalf("unexpected refs %v", refs)
	}

	n, err := repo.DeleteOlderThan(ctx, 20)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row purged, got %d", n)
	}

	n, err = repo.Delete(ctx, b.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	n, err = repo.Delete(ctx, b.ID)
	if err != nil || n != 0 {
		t.Fatalf("second Delete: n=%d err=%v", n, err)
	}

	n, err = repo.DeleteAll(ctx)
	if err != nil || n != 1 {
		t.Fatalf("DeleteAll: n=%d err=%v", n, err)
	}

	total, err = repo.SumSizeBytes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Fatalf("expected 0 bytes on empty ledger, got %d", total)
	}
	refs, err = repo.ImageRefsBefore(ctx, math.MaxInt64)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 0 {
		t.Fatalf("expected no refs, got %v", refs)
	}
}

func TestRepository_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "clipboard.db")
	repo, err := NewRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Insert(context.Background(), NewTextEntry("persisted", 1, "")); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	repo, err = NewRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()
	if _, ok, err := repo.FindByText(context.Background(), "persisted"); err != nil || !ok {
		t.Fatalf("expected entry after reopen: ok=%v err=%v", ok, err)
	}
	if repo.Path() != path {
		t.Fatalf("expected path %q, got %q", path, repo.Path())
	}
}
