package core

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashReader(t *testing.T) {
	t.Run("known digests for empty input", func(t *testing.T) {
		d, err := HashReader(bytes.NewReader(nil))
		require.NoError(t, err)
		assert.Equal(t, int64(0), d.Size)
		assert.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", d.SHA3_256)
		assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", d.MD5)
		assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", d.SHA1)
		assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", d.SHA256)
	})

	t.Run("identical content yields identical digests", func(t *testing.T) {
		a, err := HashReader(strings.NewReader("hello world"))
		require.NoError(t, err)
		b, err := HashReader(strings.NewReader("hello world"))
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Equal(t, int64(11), a.Size)
	})

	t.Run("different content yields different primary hash", func(t *testing.T) {
		a, err := HashReader(strings.NewReader("hello"))
		require.NoError(t, err)
		b, err := HashReader(strings.NewReader("world"))
		require.NoError(t, err)
		assert.NotEqual(t, a.SHA3_256, b.SHA3_256)
	})
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("some file content"), 0644))

	fromFile, err := HashFile(path)
	require.NoError(t, err)
	fromReader, err := HashReader(strings.NewReader("some file content"))
	require.NoError(t, err)
	assert.Equal(t, fromReader, fromFile)

	_, err = HashFile(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestPlanHash(t *testing.T) {
	t.Run("order independent", func(t *testing.T) {
		a := PlanHash([]string{"bb", "aa", "cc"})
		b := PlanHash([]string{"cc", "bb", "aa"})
		assert.Equal(t, a, b)
	})

	t.Run("matches sha1 of sorted JSON array", func(t *testing.T) {
		payload, err := json.Marshal([]string{"aa", "bb"})
		require.NoError(t, err)
		sum := sha1.Sum(payload)
		assert.Equal(t, hex.EncodeToString(sum[:]), PlanHash([]string{"bb", "aa"}))
	})

	t.Run("membership changes identity", func(t *testing.T) {
		assert.NotEqual(t, PlanHash([]string{"aa"}), PlanHash([]string{"aa", "bb"}))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []string{"bb", "aa"}
		PlanHash(in)
		assert.Equal(t, []string{"bb", "aa"}, in)
	})
}

func TestTermID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, TermID("alice"), TermID("alice"))
	})

	t.Run("fits in 63 bits", func(t *testing.T) {
		for _, v := range []string{"", "a", "some longer term value", "ünïcode"} {
			assert.Less(t, TermID(v), uint64(1)<<63)
		}
	})

	t.Run("distinct common values", func(t *testing.T) {
		seen := map[uint64]string{}
		for _, v := range []string{"text/plain", "application/pdf", "image/png", "/a", "/a/b"} {
			id := TermID(v)
			prev, dup := seen[id]
			require.False(t, dup, "collision between %q and %q", v, prev)
			seen[id] = v
		}
	})
}

func TestMultiHasherStreaming(t *testing.T) {
	// Writing in several chunks must equal hashing the concatenation.
	m := NewMultiHasher()
	m.Write([]byte("hello "))
	m.Write([]byte("world"))
	chunked := m.Digest()

	whole, err := HashReader(strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, whole, chunked)
}
