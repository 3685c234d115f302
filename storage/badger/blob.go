package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

// PutBlobs upserts blob metadata rows. Returns the number of keys that
// did not previously exist, so callers can observe merge idempotence.
func (s *Store) PutBlobs(ctx context.Context, blobs ...*core.BlobRef) (int, error) {
	created := 0
	err := s.backend.db.Update(func(txn *badger.Txn) error {
		for _, ref := range blobs {
			if err := core.ValidateBlobRef(ref); err != nil {
				return err
			}
			if ref.CreatedAt.IsZero() {
				ref.CreatedAt = time.Now().UTC()
			}
			key := makeBlobKey(ref.Dataset, ref.Hash)
			if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
				created++
			} else if err != nil {
				return err
			}
			value, err := storage.Marshal(ref)
			if err != nil {
				return err
			}
			if err := txn.Set(key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, translateErr(err)
	}
	return created, nil
}

// GetBlob retrieves one blob by its primary hash.
func (s *Store) GetBlob(ctx context.Context, dataset, hash string) (*core.BlobRef, error) {
	data, err := s.backend.get(makeBlobKey(dataset, hash))
	if err != nil {
		return nil, translateErr(err)
	}
	var ref core.BlobRef
	if err := storage.Unmarshal(data, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// GetBlobs retrieves the existing blobs among hashes, in hash order.
func (s *Store) GetBlobs(ctx context.Context, dataset string, hashes ...string) ([]*core.BlobRef, error) {
	sorted := slices.Clone(hashes)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var out []*core.BlobRef
	err := s.backend.db.View(func(txn *badger.Txn) error {
		for _, h := range sorted {
			item, err := txn.Get(makeBlobKey(dataset, h))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var ref core.BlobRef
			if err := storage.Unmarshal(data, &ref); err != nil {
				return err
			}
			out = append(out, &ref)
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return out, nil
}

// PutInlineValue stores the raw bytes of a small blob.
func (s *Store) PutInlineValue(ctx context.Context, dataset, hash string, data []byte) error {
	return translateErr(s.backend.set(makeBlobValueKey(dataset, hash), data))
}

// GetInlineValue retrieves the raw bytes of an inline blob.
func (s *Store) GetInlineValue(ctx context.Context, dataset, hash string) ([]byte, error) {
	data, err := s.backend.get(makeBlobValueKey(dataset, hash))
	if err != nil {
		return nil, translateErr(err)
	}
	return data, nil
}
