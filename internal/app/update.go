package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/creativeprojects/go-selfupdate"
)

const (
	repoOwner = "andrewrjohn"
	repoName  = "clipboard-plus"
)

type UpdateChecker struct {
	source selfupdate.Source
	err    error
}

func NewUpdateChecker() *UpdateChecker {
	// Use GitHub releases as source
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return &UpdateChecker{err: fmt.Errorf("failed to create update source: %w", err)}
	}
	return &UpdateChecker{source: source}
}

func (uc *UpdateChecker) newUpdater() (*selfupdate.Updater, error) {
	if uc.err != nil {
		return nil, uc.err
	}
	return selfupdate.NewUpdater(selfupdate.Config{
		Source: uc.source,
		Validator: &selfupdate.ChecksumValidator{
			UniqueFilename: "checksums.txt",
		},
	})
}

// Check reports whether a release newer than the running version exists.
func (uc *UpdateChecker) Check(ctx context.Context) (bool, *selfupdate.Release, error) {
	updater, err := uc.newUpdater()
	if err != nil {
		return false, nil, err
	}

	release, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return false, nil, err
	}
	if !found {
		return false, nil, fmt.Errorf("no releases found")
	}

	return release.GreaterThan(Version), release, nil
}

func (uc *UpdateChecker) LogAvailableUpdate(ctx context.Context) {
	hasUpdate, release, err := uc.Check(ctx)
	if err != nil {
		log.Printf("Update check failed: %v", err)
		return
	}
	if hasUpdate {
		log.Printf("Version %s is available (running %s); run `clipboard-plus update --apply`", release.Version(), Version)
	}
}

// Apply replaces the running executable with release.
func (uc *UpdateChecker) Apply(ctx context.Context, release *selfupdate.Release) error {
	exe, err := executablePath()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	if err := checkWritePermissions(exe); err != nil {
		return fmt.Errorf("insufficient permissions to update, move the binary to a user-writable location: %w", err)
	}

	updater, err := uc.newUpdater()
	if err != nil {
		return err
	}
	return updater.UpdateTo(ctx, release, exe)
}

func executablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	// Resolve symlinks
	return filepath.EvalSymlinks(exe)
}

func checkWritePermissions(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	return file.Close()
}
