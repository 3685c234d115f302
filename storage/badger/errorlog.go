package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

// Record appends error rows. Rows are never merged: the key carries the
// failure timestamp, so every attempt leaves its own trace.
func (s *Store) Record(ctx context.Context, errs ...*core.ProcessingError) error {
	err := s.backend.db.Update(func(txn *badger.Txn) error {
		for _, row := range errs {
			value, err := storage.Marshal(row)
			if err != nil {
				return err
			}
			key := makeErrorKey(row.Dataset, row.Hash, uint64(row.Timestamp.UnixNano()), row.Task)
			if err := txn.Set(key, value); err != nil {
				return err
			}
		}
		return nil
	})
	return translateErr(err)
}

// ErrorsByHash lists recorded errors for one item, oldest first.
func (s *Store) ErrorsByHash(ctx context.Context, dataset, hash string) ([]*core.ProcessingError, error) {
	prefix := keyPrefix(errorPrefix, dataset, hash)
	var out []*core.ProcessingError
	err := s.backend.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var row core.ProcessingError
			if err := storage.Unmarshal(data, &row); err != nil {
				return err
			}
			out = append(out, &row)
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return out, nil
}
