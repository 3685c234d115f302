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

package objectstore

import "errors"

var (
	// ErrObjectNotFound is returned when no object exists at a path.
	ErrObjectNotFound = errors.New("object not found")

	// ErrEndpointRequired is returned when a client is created without
	// an endpoint.
	ErrEndpointRequired = errors.New("endpoint required")

	// ErrBucketRequired is returned when a client is created without a
	// bucket name.
	ErrBucketRequired = errors.New("bucket required")
)
