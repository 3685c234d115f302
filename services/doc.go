// Package services defines the external extraction services the
// pipeline calls out to: document parsing, OCR, and named entity
// recognition. HTTP clients cover production; the mock subpackage
// covers tests.
package services
