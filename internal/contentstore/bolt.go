package contentstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/andrewrjohn/clipboard-plus/internal/util"
)

const imagesBucket = "images"

// BoltStore keeps PNG payloads in a bbolt bucket keyed by content key.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image database directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open image database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(imagesBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db, path: path}, nil
}

func (s *BoltStore) Store(ctx context.Context, pixels []byte, width, height int) (Result, error) {
	ref, err := identify(pixels, width, height)
	if err != nil {
		return Result{}, err
	}
	result := Result{Ref: ref, Width: width, Height: height}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(imagesBucket))
		if existing := b.Get([]byte(ref.Key)); existing != nil {
			result.Size = int64(len(existing))
			result.AlreadyExists = true
			return nil
		}

		encoded, err := util.EncodePNG(pixels, width, height)
		if err != nil {
			return err
		}
		result.Size = int64(len(encoded))
		return b.Put([]byte(ref.Key), encoded)
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to store image: %w", err)
	}
	return result, nil
}

func (s *BoltStore) Load(ctx context.Context, ref ContentRef) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(imagesBucket)).Get([]byte(ref.Key))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, ref.Key)
		}
		// v is only valid for the lifetime of the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *BoltStore) Remove(ctx context.Context, ref ContentRef) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(imagesBucket)).Delete([]byte(ref.Key))
	})
	if err != nil {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}

func (s *BoltStore) Location(ref ContentRef) string {
	return s.path + "#" + imagesBucket + "/" + ref.Key
}

func (s *BoltStore) Root() string {
	return s.path
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
