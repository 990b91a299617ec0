package app

import (
	"context"
	"os"
	"testing"

	"github.com/andrewrjohn/clipboard-plus/internal/clipboard"
	"github.com/andrewrjohn/clipboard-plus/internal/config"
)

func testConfig(t *testing.T, store string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.ImageStore = store
	return cfg
}

func TestNew_WithoutClipboard(t *testing.T) {
	for _, store := range []string{config.ImageStoreFile, config.ImageStoreBolt} {
		t.Run(store, func(t *testing.T) {
			cfg := testConfig(t, store)
			a, err := New(cfg, Options{})
			if err != nil {
				t.Fatal(err)
			}
			defer a.Close()

			ctx := context.Background()
			if err := a.History().RecordText(ctx, "hi", clipboard.Meta{}); err != nil {
				t.Fatal(err)
			}
			stats, err := a.History().UsageStats(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if stats.StoragePath != cfg.DatabasePath() || stats.Entries != 1 {
				t.Fatalf("unexpected stats %+v", stats)
			}
			if _, err := os.Stat(cfg.DatabasePath()); err != nil {
				t.Fatalf("expected database file: %v", err)
			}

			if err := a.Run(ctx); err == nil {
				t.Fatalf("expected Run to require the clipboard")
			}
		})
	}
}

func TestPurgeExpired_UsesRetention(t *testing.T) {
	cfg := testConfig(t, config.ImageStoreFile)
	cfg.RetentionDays = 1
	a, err := New(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx := context.Background()
	if err := a.History().RecordText(ctx, "recent", clipboard.Meta{}); err != nil {
		t.Fatal(err)
	}
	a.purgeExpired(ctx)

	items, err := a.History().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("recent entry must survive retention, got %d", len(items))
	}
}
