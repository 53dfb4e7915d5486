// Package archive unpacks partner export archives.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// ZipExtractor extracts entries from a zip archive held in memory. Partner
// exports are small (one JSON file per client), so streaming is not needed.
type ZipExtractor struct {
	// MaxEntrySize bounds the decompressed size of a single entry to keep a
	// hostile archive from exhausting memory. Zero means 32 MiB.
	MaxEntrySize int64
}

const defaultMaxEntrySize = 32 << 20

// NewZipExtractor returns an extractor with default limits.
func NewZipExtractor() *ZipExtractor {
	return &ZipExtractor{MaxEntrySize: defaultMaxEntrySize}
}

// Extract unpacks every regular file in the archive. A malformed archive is
// reported as ErrCorruptArchive; directory entries and path traversal names
// are skipped outright.
func (e *ZipExtractor) Extract(data []byte) ([]ingest.Entry, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingest.ErrCorruptArchive, err)
	}

	maxSize := e.MaxEntrySize
	if maxSize <= 0 {
		maxSize = defaultMaxEntrySize
	}

	var entries []ingest.Entry
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := f.Name
		if strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open entry %s: %v", ingest.ErrCorruptArchive, name, err)
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxSize+1))
		closeErr := rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read entry %s: %v", ingest.ErrCorruptArchive, name, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("%w: close entry %s: %v", ingest.ErrCorruptArchive, name, closeErr)
		}
		if int64(len(content)) > maxSize {
			return nil, fmt.Errorf("%w: entry %s exceeds %d bytes", ingest.ErrCorruptArchive, name, maxSize)
		}
		entries = append(entries, ingest.Entry{Name: name, Data: content})
	}
	return entries, nil
}
