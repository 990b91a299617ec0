package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var ErrNotFound = errors.New("history entry not found")

// Repository is the only owner of the history database handle. It performs
// single statements and does not serialize callers; history.Service does.
type Repository struct {
	db   *bun.DB
	path string
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway and pragmas stick to it.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	repo := &Repository{db: db, path: dbPath}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	ctx := context.Background()

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := r.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if _, err := r.db.NewCreateTable().Model((*Entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create table for %T: %w", (*Entry)(nil), err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_items_timestamp ON items(timestamp DESC, id DESC)",
		"CREATE INDEX IF NOT EXISTS idx_items_text ON items(text)",
		"CREATE INDEX IF NOT EXISTS idx_items_image_ref ON items(image_ref)",
	}
	for _, idx := range indexes {
		if _, err := r.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func (r *Repository) Insert(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if _, err := r.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert clipboard item: %w", err)
	}
	return nil
}

// Touch sets the entry's timestamp and returns the value it replaced.
func (r *Repository) Touch(ctx context.Context, id int64, timestamp int64) (int64, error) {
	var previous int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model((*Entry)(nil)).
			Column("timestamp").
			Where("id = ?", id).
			Scan(ctx, &previous)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		_, err = tx.NewUpdate().
			Model((*Entry)(nil)).
			Set("timestamp = ?", timestamp).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return 0, fmt.Errorf("failed to update timestamp: %w", err)
	}
	return previous, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Entry, error) {
	var entry Entry
	err := r.db.NewSelect().
		Model(&entry).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get item by ID: %w", err)
	}
	return &entry, nil
}

func (r *Repository) FindByText(ctx context.Context, text string) (*Entry, bool, error) {
	return r.findOne(ctx, "text = ?", text)
}

func (r *Repository) FindByImageRef(ctx context.Context, ref string) (*Entry, bool, error) {
	return r.findOne(ctx, "image_ref = ?", ref)
}

func (r *Repository) findOne(ctx context.Context, where string, arg any) (*Entry, bool, error) {
	var entry Entry
	err := r.db.NewSelect().
		Model(&entry).
		Where(where, arg).
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find item: %w", err)
	}
	return &entry, true, nil
}

// ListAll returns every entry, most recently touched first.
func (r *Repository) ListAll(ctx context.Context) ([]*Entry, error) {
	items := make([]*Entry, 0)
	err := r.db.NewSelect().
		Model(&items).
		Order("timestamp DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*Entry)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete item: %w", err)
	}
	return rowsAffected(res), nil
}

func (r *Repository) DeleteOlderThan(ctx context.Context, cutoffMs int64) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*Entry)(nil)).
		Where("timestamp < ?", cutoffMs).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old items: %w", err)
	}
	return rowsAffected(res), nil
}

func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.NewDelete().Model((*Entry)(nil)).Where("1=1").Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear all items: %w", err)
	}
	return rowsAffected(res), nil
}

func (r *Repository) SumSizeBytes(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.NewSelect().
		Model((*Entry)(nil)).
		ColumnExpr("COALESCE(SUM(size_bytes), 0)").
		Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum item sizes: %w", err)
	}
	return total, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	n, err := r.db.NewSelect().Model((*Entry)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// ImageRefsBefore lists the image references of entries older than cutoffMs.
func (r *Repository) ImageRefsBefore(ctx context.Context, cutoffMs int64) ([]string, error) {
	refs := make([]string, 0)
	err := r.db.NewSelect().
		Model((*Entry)(nil)).
		Column("image_ref").
		Where("image_ref IS NOT NULL").
		Where("timestamp < ?", cutoffMs).
		Scan(ctx, &refs)
	if err != nil {
		return nil, fmt.Errorf("failed to list image refs: %w", err)
	}
	return refs, nil
}

func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
