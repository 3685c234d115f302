package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

// PutDataset upserts a dataset row and its name index entry.
func (s *Store) PutDataset(ctx context.Context, ds *core.Dataset) error {
	if err := core.ValidateDataset(ds); err != nil {
		return err
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}
	ds.UpdatedAt = time.Now().UTC()

	value, err := storage.Marshal(ds)
	if err != nil {
		return err
	}
	err = s.backend.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(makeDatasetKey(ds.ID), value); err != nil {
			return err
		}
		return txn.Set(makeDatasetNameKey(ds.Name), []byte(ds.ID))
	})
	return translateErr(err)
}

// GetDataset retrieves a dataset by ID.
func (s *Store) GetDataset(ctx context.Context, id string) (*core.Dataset, error) {
	data, err := s.backend.get(makeDatasetKey(id))
	if err != nil {
		return nil, translateErr(err)
	}
	var ds core.Dataset
	if err := storage.Unmarshal(data, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// GetDatasetByName retrieves a dataset through the name index.
func (s *Store) GetDatasetByName(ctx context.Context, name string) (*core.Dataset, error) {
	id, err := s.backend.get(makeDatasetNameKey(name))
	if err != nil {
		return nil, translateErr(err)
	}
	return s.GetDataset(ctx, string(id))
}
