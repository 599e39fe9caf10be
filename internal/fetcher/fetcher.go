// Package fetcher downloads disclosure extracts and streams their rows from
// delimited text, XLSX, and ZIP sources.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads remote extracts.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Row is one parsed row with the 1-based line (or sheet row) it came from.
type Row struct {
	Line   int
	Fields []string
}
