package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPMetadataService parses documents through a Tika-compatible HTTP
// endpoint.
type HTTPMetadataService struct {
	baseURL string
	client  *http.Client
}

var _ MetadataService = (*HTTPMetadataService)(nil)

// NewHTTPMetadataService creates a client for a Tika-compatible parser.
// A nil httpClient uses http.DefaultClient.
func NewHTTPMetadataService(baseURL string, httpClient *http.Client) (*HTTPMetadataService, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPMetadataService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}, nil
}

// tikaResponse is the subset of the parser response we consume.
type tikaResponse struct {
	Pages    []string          `json:"pages"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Parse sends the document body and returns pages and metadata.
func (s *HTTPMetadataService) Parse(ctx context.Context, r io.Reader, contentType string) (*ParseResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+"/tika", r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: parser returned %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var parsed tikaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	pages := parsed.Pages
	if len(pages) == 0 && parsed.Content != "" {
		pages = []string{parsed.Content}
	}
	return &ParseResult{Pages: pages, Metadata: parsed.Metadata}, nil
}

// HTTPOCRService recognizes image text through an HTTP OCR endpoint.
type HTTPOCRService struct {
	baseURL string
	client  *http.Client
}

var _ OCRService = (*HTTPOCRService)(nil)

// NewHTTPOCRService creates a client for an OCR endpoint.
// A nil httpClient uses http.DefaultClient.
func NewHTTPOCRService(baseURL string, httpClient *http.Client) (*HTTPOCRService, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPOCRService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}, nil
}

// Recognize sends the image bytes and returns the recognized text.
func (s *HTTPOCRService) Recognize(ctx context.Context, r io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/ocr", r)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ocr returned %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Text, nil
}

// HTTPEntityService recognizes named entities through an HTTP NER
// endpoint.
type HTTPEntityService struct {
	baseURL string
	client  *http.Client
}

var _ EntityService = (*HTTPEntityService)(nil)

// NewHTTPEntityService creates a client for a NER endpoint.
// A nil httpClient uses http.DefaultClient.
func NewHTTPEntityService(baseURL string, httpClient *http.Client) (*HTTPEntityService, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPEntityService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}, nil
}

// Extract sends the text and returns entities grouped by type.
func (s *HTTPEntityService) Extract(ctx context.Context, text string) (map[string][]string, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/ner", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ner returned %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var result struct {
		Entities map[string][]string `json:"entities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Entities, nil
}
