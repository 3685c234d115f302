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

package queue

import "errors"

var (
	// ErrNoTask is returned when a blocking dequeue times out with
	// nothing available.
	ErrNoTask = errors.New("no task available")

	// ErrQueueClosed is returned when operating on a closed queue.
	ErrQueueClosed = errors.New("queue closed")

	// ErrQueueRequired is returned when a worker is created without a
	// queue.
	ErrQueueRequired = errors.New("queue required")

	// ErrHandlerRequired is returned when a worker is created without a
	// handler.
	ErrHandlerRequired = errors.New("handler required")
)
