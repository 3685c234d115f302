package badger

import (
	"context"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

// PutDirectories upserts directory rows. Returns the number of net-new
// rows so re-scans can be observed as no-ops.
func (s *Store) PutDirectories(ctx context.Context, dirs ...*core.VFSDirectory) (int, error) {
	created := 0
	err := s.backend.db.Update(func(txn *badger.Txn) error {
		for _, d := range dirs {
			key := makeVFSDirKey(d.Dataset, d.Container, d.Path)
			if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
				created++
			} else if err != nil {
				return err
			}
			value, err := storage.Marshal(d)
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

// PutFiles upserts file rows and their hash index entries. Returns the
// number of net-new rows.
func (s *Store) PutFiles(ctx context.Context, files ...*core.VFSFile) (int, error) {
	created := 0
	err := s.backend.db.Update(func(txn *badger.Txn) error {
		for _, f := range files {
			key := makeVFSFileKey(f.Dataset, f.Container, f.Path)
			if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
				created++
			} else if err != nil {
				return err
			}
			value, err := storage.Marshal(f)
			if err != nil {
				return err
			}
			if err := txn.Set(key, value); err != nil {
				return err
			}
			if err := txn.Set(makeVFSHashKey(f.Dataset, f.Hash, f.Container, f.Path), nil); err != nil {
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

// FilesByContainer lists file rows linked to a container, in path order.
func (s *Store) FilesByContainer(ctx context.Context, dataset, container string) ([]*core.VFSFile, error) {
	prefix := keyPrefix(vfsFilePrefix, dataset, container)
	var out []*core.VFSFile
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
			var f core.VFSFile
			if err := storage.Unmarshal(data, &f); err != nil {
				return err
			}
			out = append(out, &f)
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return out, nil
}

// FilePaths lists all logical paths referencing a blob hash.
func (s *Store) FilePaths(ctx context.Context, dataset, hash string) ([]string, error) {
	prefix := keyPrefix(vfsHashPrefix, dataset, hash)
	var out []string
	err := s.backend.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			rest := string(it.Item().Key()[len(prefix):])
			// rest is container:path; the container segment has no ':'.
			if i := strings.IndexByte(rest, ':'); i >= 0 {
				out = append(out, rest[i+1:])
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return out, nil
}
