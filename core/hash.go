// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha3"
	"encoding/hex"
	"encoding/json"
	"hash"
	"hash/adler32"
	"hash/crc32"
	"io"
	"os"
	"slices"
)

// hashBufferSize is the read buffer for streaming digests.
const hashBufferSize = 8 * 1024 * 1024

// Digest holds all content digests computed in a single streaming pass.
// SHA3_256 is the primary key; the others exist for cross-system
// compatibility with external hash databases.
type Digest struct {
	SHA3_256 string
	MD5      string
	SHA1     string
	SHA256   string
	Size     int64
}

// MultiHasher computes the full digest set over a stream. It implements
// io.Writer so it can sit behind io.Copy or io.TeeReader.
type MultiHasher struct {
	sha3   hash.Hash
	md5    hash.Hash
	sha1   hash.Hash
	sha256 hash.Hash
	size   int64
}

var _ io.Writer = (*MultiHasher)(nil)

// NewMultiHasher creates a MultiHasher with fresh digest state.
func NewMultiHasher() *MultiHasher {
	return &MultiHasher{
		sha3:   sha3.New256(),
		md5:    md5.New(),
		sha1:   sha1.New(),
		sha256: sha256.New(),
	}
}

func (m *MultiHasher) Write(p []byte) (int, error) {
	m.sha3.Write(p)
	m.md5.Write(p)
	m.sha1.Write(p)
	m.sha256.Write(p)
	m.size += int64(len(p))
	return len(p), nil
}

// Digest returns the digests of everything written so far.
func (m *MultiHasher) Digest() Digest {
	return Digest{
		SHA3_256: hex.EncodeToString(m.sha3.Sum(nil)),
		MD5:      hex.EncodeToString(m.md5.Sum(nil)),
		SHA1:     hex.EncodeToString(m.sha1.Sum(nil)),
		SHA256:   hex.EncodeToString(m.sha256.Sum(nil)),
		Size:     m.size,
	}
}

// HashReader consumes r and returns its digest set.
func HashReader(r io.Reader) (Digest, error) {
	m := NewMultiHasher()
	buf := make([]byte, hashBufferSize)
	if _, err := io.CopyBuffer(m, r, buf); err != nil {
		return Digest{}, err
	}
	return m.Digest(), nil
}

// HashFile computes the digest set of the file at path in one pass.
func HashFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()
	return HashReader(f)
}

// PlanHash derives the content-addressed identity of a plan from its
// member hashes: the hex sha1 of the compact JSON array of the sorted set.
// Identical membership always reproduces the identical plan hash.
func PlanHash(itemHashes []string) string {
	sorted := slices.Clone(itemHashes)
	slices.Sort(sorted)
	payload, _ := json.Marshal(sorted)
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])
}

// TermID maps a term value to a deterministic 63-bit id:
// (crc32 | adler32<<31) mod 2^63. The same value always encodes to the
// same id, so index rebuilds reuse existing encodings.
func TermID(value string) uint64 {
	b := []byte(value)
	crc := uint64(crc32.ChecksumIEEE(b))
	adl := uint64(adler32.Checksum(b))
	return (crc | adl<<31) % (1 << 63)
}
