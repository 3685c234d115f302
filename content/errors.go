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

package content

import "errors"

var (
	// ErrStorageRequired is returned when a store is created without its
	// structured storage backend.
	ErrStorageRequired = errors.New("structured storage required")

	// ErrObjectStoreRequired is returned when a store is created without
	// an object store.
	ErrObjectStoreRequired = errors.New("object store required")

	// ErrSizeMismatch is returned when stored bytes no longer match the
	// recorded blob size.
	ErrSizeMismatch = errors.New("blob size mismatch")
)
