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

package pipeline

import "errors"

var (
	// ErrStorageRequired is returned when a service is created without
	// structured storage.
	ErrStorageRequired = errors.New("structured storage required")

	// ErrQueueRequired is returned when a service is created without a
	// task queue.
	ErrQueueRequired = errors.New("task queue required")

	// ErrUnknownTask is returned for task names no handler covers.
	ErrUnknownTask = errors.New("unknown task")

	// ErrDepthExhausted is returned when container expansion keeps
	// producing new content past the restart limit.
	ErrDepthExhausted = errors.New("replanning depth exhausted")
)
