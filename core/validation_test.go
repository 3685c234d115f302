package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDataset(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateDataset(&Dataset{Name: "case-42", Root: "/data/case-42", SourceKind: "disk"}))
	})
	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDataset(nil), ErrInvalidDataset)
	})
	t.Run("empty name", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDataset(&Dataset{Root: "/x"}), ErrEmptyDatasetName)
	})
	t.Run("empty root", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDataset(&Dataset{Name: "x"}), ErrEmptyDatasetRoot)
	})
}

func TestValidateBlobRef(t *testing.T) {
	t.Run("valid inline", func(t *testing.T) {
		assert.NoError(t, ValidateBlobRef(&BlobRef{Hash: "ab", Size: 1, Inline: true}))
	})
	t.Run("valid object-store", func(t *testing.T) {
		assert.NoError(t, ValidateBlobRef(&BlobRef{Hash: "ab", Size: 1, ObjectPath: "ds/blobs/ab"}))
	})
	t.Run("missing hash", func(t *testing.T) {
		assert.ErrorIs(t, ValidateBlobRef(&BlobRef{Size: 1, Inline: true}), ErrEmptyHash)
	})
	t.Run("negative size", func(t *testing.T) {
		assert.ErrorIs(t, ValidateBlobRef(&BlobRef{Hash: "ab", Size: -1, Inline: true}), ErrNegativeSize)
	})
	t.Run("object-store blob without path", func(t *testing.T) {
		assert.ErrorIs(t, ValidateBlobRef(&BlobRef{Hash: "ab", Size: 1}), ErrInvalidBlob)
	})
}
