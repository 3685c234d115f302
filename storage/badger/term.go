package badger

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sift/storage"
)

// LookupTerms returns the known ids among values for a field. Unknown
// values are simply absent from the result map.
func (s *Store) LookupTerms(ctx context.Context, dataset, field string, values []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(values))
	err := s.backend.db.View(func(txn *badger.Txn) error {
		for _, value := range values {
			item, err := txn.Get(makeTermKey(dataset, field, value))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if len(data) != 8 {
				return storage.ErrSerializationFailed
			}
			out[value] = binary.BigEndian.Uint64(data)
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return out, nil
}

// PutTerms stores value-to-id pairs in both directions so search results
// can be decoded back to their original values.
func (s *Store) PutTerms(ctx context.Context, dataset, field string, pairs map[string]uint64) error {
	err := s.backend.db.Update(func(txn *badger.Txn) error {
		for value, id := range pairs {
			var encoded [8]byte
			binary.BigEndian.PutUint64(encoded[:], id)
			if err := txn.Set(makeTermKey(dataset, field, value), encoded[:]); err != nil {
				return err
			}
			if err := txn.Set(makeTermRevKey(dataset, field, id), []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
	return translateErr(err)
}

// TermValue resolves an id back to its value.
func (s *Store) TermValue(ctx context.Context, dataset, field string, id uint64) (string, error) {
	data, err := s.backend.get(makeTermRevKey(dataset, field, id))
	if err != nil {
		return "", translateErr(err)
	}
	return string(data), nil
}
