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

package mock

import (
	"context"
	"io"
	"sync"

	"github.com/poiesic/sift/services"
)

// MockMetadataService is a test double for services.MetadataService.
type MockMetadataService struct {
	mu     sync.Mutex
	Result *services.ParseResult
	Err    error
	Calls  int
}

var _ services.MetadataService = (*MockMetadataService)(nil)

// NewMockMetadataService creates a mock parser returning a single page
// of placeholder text.
func NewMockMetadataService() *MockMetadataService {
	return &MockMetadataService{
		Result: &services.ParseResult{
			Pages:    []string{"parsed text"},
			Metadata: map[string]string{"Content-Type": "application/pdf"},
		},
	}
}

// Parse consumes the body and returns the configured result.
func (m *MockMetadataService) Parse(ctx context.Context, r io.Reader, contentType string) (*services.ParseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// MockOCRService is a test double for services.OCRService.
type MockOCRService struct {
	mu    sync.Mutex
	Text  string
	Err   error
	Calls int
}

var _ services.OCRService = (*MockOCRService)(nil)

// NewMockOCRService creates a mock OCR service returning fixed text.
func NewMockOCRService() *MockOCRService {
	return &MockOCRService{Text: "recognized text"}
}

// Recognize consumes the body and returns the configured text.
func (m *MockOCRService) Recognize(ctx context.Context, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// MockEntityService is a test double for services.EntityService.
type MockEntityService struct {
	mu       sync.Mutex
	Entities map[string][]string
	Err      error
	Calls    int
}

var _ services.EntityService = (*MockEntityService)(nil)

// NewMockEntityService creates a mock NER service with no entities.
func NewMockEntityService() *MockEntityService {
	return &MockEntityService{Entities: map[string][]string{}}
}

// Extract returns the configured entities.
func (m *MockEntityService) Extract(ctx context.Context, text string) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Entities, nil
}
