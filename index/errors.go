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

package index

import "errors"

var (
	// ErrStorageRequired is returned when an indexer is created without
	// structured storage.
	ErrStorageRequired = errors.New("structured storage required")

	// ErrSearchStoreRequired is returned when an indexer is created
	// without a search store.
	ErrSearchStoreRequired = errors.New("search store required")

	// ErrPlanNotFinished is returned when an index pass is requested
	// for a plan whose execution has not completed.
	ErrPlanNotFinished = errors.New("plan execution not finished")

	// ErrBaseURLRequired is returned when a search client is created
	// without a base URL.
	ErrBaseURLRequired = errors.New("base URL required")

	// ErrSearchUnavailable is returned when the search service responds
	// with a non-success status.
	ErrSearchUnavailable = errors.New("search service unavailable")
)
