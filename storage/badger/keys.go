package badger

import (
	"encoding/binary"
	"strings"
)

// Key prefixes for different data types. Hashes are hex and dataset IDs
// are UUIDs, so ":" is a safe separator; free-form segments (paths, term
// values) always sit at the end of their key.
const (
	datasetPrefix     = "ds"
	datasetNamePrefix = "dsn"
	blobPrefix        = "blob"
	blobValuePrefix   = "bval"
	vfsDirPrefix      = "vdir"
	vfsFilePrefix     = "vfile"
	vfsHashPrefix     = "vhash"
	planPrefix        = "plan"
	planMemberPrefix  = "pmem"
	planFinishPrefix  = "pfin"
	extractPrefix     = "xrec"
	containerPrefix   = "cont"
	emailHeaderPrefix = "ehdr"
	errorPrefix       = "perr"
	entityHitPrefix   = "ehit"
	termPrefix        = "term"
	termRevPrefix     = "termr"
)

func joinKey(segments ...string) []byte {
	return []byte(strings.Join(segments, ":"))
}

// keyPrefix returns a scan prefix ending in the separator.
func keyPrefix(segments ...string) []byte {
	return []byte(strings.Join(segments, ":") + ":")
}

func makeDatasetKey(id string) []byte {
	return joinKey(datasetPrefix, id)
}

func makeDatasetNameKey(name string) []byte {
	return joinKey(datasetNamePrefix, name)
}

func makeBlobKey(dataset, hash string) []byte {
	return joinKey(blobPrefix, dataset, hash)
}

func makeBlobValueKey(dataset, hash string) []byte {
	return joinKey(blobValuePrefix, dataset, hash)
}

func makeVFSDirKey(dataset, container, path string) []byte {
	return joinKey(vfsDirPrefix, dataset, container, path)
}

func makeVFSFileKey(dataset, container, path string) []byte {
	return joinKey(vfsFilePrefix, dataset, container, path)
}

// makeVFSHashKey indexes a file row by its blob hash for reverse lookup.
// Format: vhash:dataset:hash:container:path (path last, may contain ':').
func makeVFSHashKey(dataset, hash, container, path string) []byte {
	return joinKey(vfsHashPrefix, dataset, hash, container, path)
}

func makePlanKey(dataset, planHash string) []byte {
	return joinKey(planPrefix, dataset, planHash)
}

func makePlanMemberKey(dataset, itemHash string) []byte {
	return joinKey(planMemberPrefix, dataset, itemHash)
}

func makePlanFinishKey(dataset, planHash string) []byte {
	return joinKey(planFinishPrefix, dataset, planHash)
}

// makeExtractKey keys extraction records by (hash, extractor, page).
// The page is BigEndian so lexicographic key order is page order.
func makeExtractKey(dataset, hash, extractor string, page uint32) []byte {
	prefix := keyPrefix(extractPrefix, dataset, hash, extractor)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], page)
	return buf
}

func makeContainerKey(dataset, hash string) []byte {
	return joinKey(containerPrefix, dataset, hash)
}

func makeEmailHeaderKey(dataset, hash string) []byte {
	return joinKey(emailHeaderPrefix, dataset, hash)
}

// makeErrorKey keys an error row by (hash, nanosecond timestamp, task).
// The timestamp is BigEndian so iteration returns rows oldest first; the
// trailing task name disambiguates same-instant failures.
func makeErrorKey(dataset, hash string, tsNano uint64, task string) []byte {
	prefix := keyPrefix(errorPrefix, dataset, hash)
	buf := make([]byte, len(prefix)+8+1+len(task))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], tsNano)
	offset += 8
	buf[offset] = ':'
	offset++
	copy(buf[offset:], task)
	return buf
}

func makeEntityHitKey(dataset, hash, extractor string, page uint32, entityType string) []byte {
	prefix := keyPrefix(entityHitPrefix, dataset, hash, extractor)
	buf := make([]byte, len(prefix)+4+1+len(entityType))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], page)
	offset += 4
	buf[offset] = ':'
	offset++
	copy(buf[offset:], entityType)
	return buf
}

func makeTermKey(dataset, field, value string) []byte {
	return joinKey(termPrefix, dataset, field, value)
}

func makeTermRevKey(dataset, field string, id uint64) []byte {
	prefix := keyPrefix(termRevPrefix, dataset, field)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], id)
	return buf
}
