// Package extract turns blobs into extraction records. The router
// detects each item's type and runs the always-on generic pass plus the
// extractors registered for that kind: plain text is chunked into
// pages, rich documents go through the external parser, archives and
// emails expand into container-linked children, and images are handed
// to the OCR fleet.
package extract
