// Package extract turns source documents into plain text for synthesis.
//
// PDF files are read with ledongthuc/pdf, Markdown is reduced to its prose
// with goldmark and plain text files are read as-is. Every result is
// normalized to NFC. Extraction results can be kept in a zstd-compressed
// disk cache keyed by file identity, so re-running a queue after a failed
// synthesis does not parse large PDFs again.
package extract
