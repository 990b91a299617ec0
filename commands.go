package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrewrjohn/clipboard-plus/internal/app"
	"github.com/andrewrjohn/clipboard-plus/internal/clipboard"
	"github.com/andrewrjohn/clipboard-plus/internal/config"
	"github.com/andrewrjohn/clipboard-plus/internal/database"
)

func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, path, nil
}

func openApp(withClipboard bool) (*app.ClipboardApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, app.Options{Clipboard: withClipboard})
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch the clipboard and record history until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				if err := cfg.Save(path); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to save default config: %v\n", err)
				}
			}

			a, err := app.New(cfg, app.Options{Clipboard: true})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
}

func listCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show clipboard history, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.History().List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWHEN\tSIZE\tSOURCE\tCONTENT")
			for _, it := range items {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
					it.ID,
					time.UnixMilli(it.Timestamp).Format("2006-01-02 15:04:05"),
					it.SizeBytes,
					deref(it.SourceApp, "-"),
					preview(it),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func copyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy <id>",
		Short: "Put an entry back on the clipboard and move it to the top",
		Long: `Put an entry back on the clipboard and move it to the top.

On Linux the copied content is served by this process, so the command keeps
running until another program copies something or it is interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(true)
			if err != nil {
				return err
			}

			ts, err := a.History().Copy(cmd.Context(), id)
			system := a.Clipboard()
			// Release the database and image store before holding the selection.
			a.Close()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Copied item %d (timestamp %d)\n", id, ts)
			if !clipboard.OwnsSelection() {
				return nil
			}

			fmt.Fprintln(out, "Keeping the clipboard until something else is copied (Ctrl+C to stop)")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			waitReplaced(ctx, system.Overwritten())
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.History().Delete(cmd.Context(), id)
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all clipboard history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.History().ClearAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d items\n", removed)
			return nil
		},
	}
}

func purgeCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete entries not used for the given number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.History().PurgeOlderThan(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d items older than %d days\n", removed, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Age threshold in days")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show storage usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.History().UsageStats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entries:  %d\n", stats.Entries)
			fmt.Fprintf(out, "Size:     %d bytes\n", stats.TotalSizeBytes)
			fmt.Fprintf(out, "Database: %s\n", stats.StoragePath)
			fmt.Fprintf(out, "Images:   %s\n", stats.ImagesPath)
			return nil
		},
	}
}

func updateCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check GitHub releases for a newer version",
		RunE: func(cmd *cobra.Command, args []string) error {
			checker := app.NewUpdateChecker()
			hasUpdate, release, err := checker.Check(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to check for updates: %w", err)
			}
			out := cmd.OutOrStdout()
			if !hasUpdate {
				fmt.Fprintf(out, "You're running the latest version (%s)\n", app.Version)
				return nil
			}
			fmt.Fprintf(out, "Version %s is available (current %s)\n", release.Version(), app.Version)
			if !apply {
				return nil
			}
			if err := checker.Apply(cmd.Context(), release); err != nil {
				return fmt.Errorf("update failed: %w", err)
			}
			fmt.Fprintln(out, "Updated, restart clipboard-plus to use the new version")
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Download and install the update")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit %s, built %s)\n", app.AppName, app.Version, app.GitCommit, app.BuildDate)
		},
	}
}

// waitReplaced blocks until another program takes over the clipboard or ctx
// ends. It reports whether the content was replaced.
func waitReplaced(ctx context.Context, overwritten <-chan struct{}) bool {
	select {
	case <-overwritten:
		return true
	case <-ctx.Done():
		return false
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func preview(e *database.Entry) string {
	if e.IsImage() {
		return fmt.Sprintf("[image %dx%d]", *e.ImageWidth, *e.ImageHeight)
	}
	text := strings.Join(strings.Fields(*e.Text), " ")
	if r := []rune(text); len(r) > 60 {
		text = string(r[:57]) + "..."
	}
	return text
}
