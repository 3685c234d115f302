package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

// PutRecords upserts extraction records keyed by (hash, extractor, page).
func (s *Store) PutRecords(ctx context.Context, records ...*core.ExtractionRecord) error {
	err := s.backend.db.Update(func(txn *badger.Txn) error {
		for _, rec := range records {
			value, err := storage.Marshal(rec)
			if err != nil {
				return err
			}
			key := makeExtractKey(rec.Dataset, rec.Hash, rec.Extractor, rec.Page)
			if err := txn.Set(key, value); err != nil {
				return err
			}
		}
		return nil
	})
	return translateErr(err)
}

// RecordsByHashes retrieves all extraction records for the given hashes,
// ordered by (hash, extractor, page).
func (s *Store) RecordsByHashes(ctx context.Context, dataset string, hashes ...string) ([]*core.ExtractionRecord, error) {
	var out []*core.ExtractionRecord
	err := s.backend.db.View(func(txn *badger.Txn) error {
		for _, h := range hashes {
			prefix := keyPrefix(extractPrefix, dataset, h)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			for it.Rewind(); it.Valid(); it.Next() {
				data, err := it.Item().ValueCopy(nil)
				if err != nil {
					it.Close()
					return err
				}
				var rec core.ExtractionRecord
				if err := storage.Unmarshal(data, &rec); err != nil {
					it.Close()
					return err
				}
				out = append(out, &rec)
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return out, nil
}

// PutContainer upserts a container row.
func (s *Store) PutContainer(ctx context.Context, c *core.Container) error {
	value, err := storage.Marshal(c)
	if err != nil {
		return err
	}
	return translateErr(s.backend.set(makeContainerKey(c.Dataset, c.Hash), value))
}

// GetContainer retrieves a container row.
func (s *Store) GetContainer(ctx context.Context, dataset, hash string) (*core.Container, error) {
	data, err := s.backend.get(makeContainerKey(dataset, hash))
	if err != nil {
		return nil, translateErr(err)
	}
	var c core.Container
	if err := storage.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// PutEmailHeader upserts the structured header row of a parsed email.
func (s *Store) PutEmailHeader(ctx context.Context, h *core.EmailHeader) error {
	value, err := storage.Marshal(h)
	if err != nil {
		return err
	}
	return translateErr(s.backend.set(makeEmailHeaderKey(h.Dataset, h.Hash), value))
}

// GetEmailHeader retrieves an email header row.
func (s *Store) GetEmailHeader(ctx context.Context, dataset, hash string) (*core.EmailHeader, error) {
	data, err := s.backend.get(makeEmailHeaderKey(dataset, hash))
	if err != nil {
		return nil, translateErr(err)
	}
	var h core.EmailHeader
	if err := storage.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// PutEntityHits upserts entity hits with their full provenance key.
func (s *Store) PutEntityHits(ctx context.Context, hits ...*core.EntityHit) error {
	err := s.backend.db.Update(func(txn *badger.Txn) error {
		for _, hit := range hits {
			value, err := storage.Marshal(hit)
			if err != nil {
				return err
			}
			key := makeEntityHitKey(hit.Dataset, hit.Hash, hit.Extractor, hit.Page, hit.EntityType)
			if err := txn.Set(key, value); err != nil {
				return err
			}
		}
		return nil
	})
	return translateErr(err)
}

// EntityHitsByHash retrieves entity hits for one blob.
func (s *Store) EntityHitsByHash(ctx context.Context, dataset, hash string) ([]*core.EntityHit, error) {
	prefix := keyPrefix(entityHitPrefix, dataset, hash)
	var out []*core.EntityHit
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
			var hit core.EntityHit
			if err := storage.Unmarshal(data, &hit); err != nil {
				return err
			}
			out = append(out, &hit)
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return out, nil
}
