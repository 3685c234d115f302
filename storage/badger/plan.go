package badger

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

// PutMemberships claims item hashes for a plan. Membership is keyed by
// the item hash alone, so an item can hold at most one membership row;
// the last writer for an item wins.
func (s *Store) PutMemberships(ctx context.Context, dataset, planHash string, itemHashes ...string) error {
	err := s.backend.db.Update(func(txn *badger.Txn) error {
		for _, h := range itemHashes {
			if err := txn.Set(makePlanMemberKey(dataset, h), []byte(planHash)); err != nil {
				return err
			}
		}
		return nil
	})
	return translateErr(err)
}

// Membership returns the plan hash owning an item.
func (s *Store) Membership(ctx context.Context, dataset, itemHash string) (string, error) {
	data, err := s.backend.get(makePlanMemberKey(dataset, itemHash))
	if err != nil {
		return "", translateErr(err)
	}
	return string(data), nil
}

// PutPlan upserts a plan row.
func (s *Store) PutPlan(ctx context.Context, plan *core.Plan) error {
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	value, err := storage.Marshal(plan)
	if err != nil {
		return err
	}
	return translateErr(s.backend.set(makePlanKey(plan.Dataset, plan.Hash), value))
}

// GetPlan retrieves a plan by hash.
func (s *Store) GetPlan(ctx context.Context, dataset, planHash string) (*core.Plan, error) {
	data, err := s.backend.get(makePlanKey(dataset, planHash))
	if err != nil {
		return nil, translateErr(err)
	}
	var plan core.Plan
	if err := storage.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// PendingPlans lists plan hashes with no completion row, ascending,
// starting after startAfter, up to limit.
func (s *Store) PendingPlans(ctx context.Context, dataset, startAfter string, limit int) ([]string, error) {
	prefix := keyPrefix(planPrefix, dataset)
	var out []string
	err := s.backend.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if startAfter != "" {
			seek = makePlanKey(dataset, startAfter)
		}
		for it.Seek(seek); it.Valid(); it.Next() {
			key := it.Item().Key()
			planHash := string(key[len(prefix):])
			if startAfter != "" && planHash == startAfter {
				continue
			}
			_, err := txn.Get(makePlanFinishKey(dataset, planHash))
			if err == badger.ErrKeyNotFound {
				out = append(out, planHash)
				if limit > 0 && len(out) >= limit {
					return nil
				}
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return out, nil
}

// MarkFinished writes the completion row for a plan.
func (s *Store) MarkFinished(ctx context.Context, dataset, planHash string) error {
	completion := &core.PlanCompletion{
		Dataset:    dataset,
		PlanHash:   planHash,
		FinishedAt: time.Now().UTC(),
	}
	value, err := storage.Marshal(completion)
	if err != nil {
		return err
	}
	return translateErr(s.backend.set(makePlanFinishKey(dataset, planHash), value))
}

// Finished reports whether a plan has a completion row.
func (s *Store) Finished(ctx context.Context, dataset, planHash string) (bool, error) {
	ok, err := s.backend.has(makePlanFinishKey(dataset, planHash))
	return ok, translateErr(err)
}

// UnplannedBlobs lists blobs with no membership row, ordered by
// (size ascending, hash ascending) so packing is reproducible.
func (s *Store) UnplannedBlobs(ctx context.Context, dataset string) ([]*core.BlobRef, error) {
	prefix := keyPrefix(blobPrefix, dataset)
	var out []*core.BlobRef
	err := s.backend.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			hash := string(bytes.TrimPrefix(it.Item().Key(), prefix))
			_, err := txn.Get(makePlanMemberKey(dataset, hash))
			if err == nil {
				continue
			}
			if err != badger.ErrKeyNotFound {
				return err
			}
			data, err := it.Item().ValueCopy(nil)
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
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size < out[j].Size
		}
		return out[i].Hash < out[j].Hash
	})
	return out, nil
}

// CountUnplanned counts blobs with no membership row.
func (s *Store) CountUnplanned(ctx context.Context, dataset string) (int, error) {
	prefix := keyPrefix(blobPrefix, dataset)
	count := 0
	err := s.backend.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			hash := string(bytes.TrimPrefix(it.Item().Key(), prefix))
			_, err := txn.Get(makePlanMemberKey(dataset, hash))
			if err == badger.ErrKeyNotFound {
				count++
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, translateErr(err)
	}
	return count, nil
}
