package core

import "fmt"

// ValidateDataset validates a Dataset according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Root must not be empty
//
// NOT validated:
//   - ID (assigned at onboarding)
//   - SourceKind (free-form, immutable after creation)
func ValidateDataset(ds *Dataset) error {
	if ds == nil {
		return fmt.Errorf("%w: dataset is nil", ErrInvalidDataset)
	}
	if ds.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDataset, ErrEmptyDatasetName)
	}
	if ds.Root == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDataset, ErrEmptyDatasetRoot)
	}
	return nil
}

// ValidateBlobRef validates a BlobRef according to domain rules.
//
// Validation rules:
//   - Hash must not be empty
//   - Size must not be negative
//   - Inline blobs carry no object path; object-store blobs must have one
func ValidateBlobRef(ref *BlobRef) error {
	if ref == nil {
		return fmt.Errorf("%w: blob ref is nil", ErrInvalidBlob)
	}
	if ref.Hash == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBlob, ErrEmptyHash)
	}
	if ref.Size < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidBlob, ErrNegativeSize)
	}
	if !ref.Inline && ref.ObjectPath == "" {
		return fmt.Errorf("%w: object-store blob missing path", ErrInvalidBlob)
	}
	return nil
}
