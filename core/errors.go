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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDataset indicates a Dataset failed validation.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrInvalidBlob indicates a BlobRef failed validation.
	ErrInvalidBlob = errors.New("invalid blob")

	// ErrEmptyDatasetName indicates the dataset Name field is empty.
	ErrEmptyDatasetName = errors.New("dataset name cannot be empty")

	// ErrEmptyDatasetRoot indicates the dataset Root field is empty.
	ErrEmptyDatasetRoot = errors.New("dataset root cannot be empty")

	// ErrEmptyHash indicates a record is missing its content hash.
	ErrEmptyHash = errors.New("content hash cannot be empty")

	// ErrNegativeSize indicates a negative byte size.
	ErrNegativeSize = errors.New("size cannot be negative")
)
