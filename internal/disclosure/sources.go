package disclosure

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/fetcher"
)

var extractExts = []string{".tsv", ".csv", ".txt", ".xlsx", ".zip"}

// IsExtract reports whether name has an extension this package can read.
func IsExtract(name string) bool {
	return slices.Contains(extractExts, strings.ToLower(filepath.Ext(name)))
}

// IsURL reports whether src should be downloaded rather than opened.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// SourceOptions controls how command-line sources expand into files.
type SourceOptions struct {
	// FilePattern is a regular expression matched against file base names
	// found while walking directories. Explicit file arguments are always
	// read.
	FilePattern string
	// DownloadDir receives fetched URLs; a temporary directory is used when
	// empty.
	DownloadDir string
	// Workers bounds concurrent downloads.
	Workers int
}

// ResolveSources expands sources into local extract paths in argument
// order. Directories are walked recursively in lexical order and URLs are
// downloaded through f. Sources that do not exist are an error.
func ResolveSources(ctx context.Context, f fetcher.Fetcher, sources []string, opts SourceOptions) ([]string, error) {
	var pattern *regexp.Regexp
	if opts.FilePattern != "" {
		re, err := regexp.Compile(opts.FilePattern)
		if err != nil {
			return nil, eris.Wrapf(err, "disclosure: compile file pattern %q", opts.FilePattern)
		}
		pattern = re
	}

	var urls []string
	for _, src := range sources {
		if IsURL(src) {
			urls = append(urls, src)
		}
	}
	downloaded := make(map[string]string, len(urls))
	if len(urls) > 0 {
		if f == nil {
			return nil, eris.New("disclosure: url sources need a fetcher")
		}
		dir := opts.DownloadDir
		if dir == "" {
			tmp, err := os.MkdirTemp("", "employer-resolve-fetch-*")
			if err != nil {
				return nil, eris.Wrap(err, "disclosure: create download dir")
			}
			dir = tmp
		}
		paths, err := fetcher.DownloadAll(ctx, f, urls, dir, opts.Workers)
		if err != nil {
			return nil, err
		}
		for i, u := range urls {
			downloaded[u] = paths[i]
		}
	}

	var out []string
	for _, src := range sources {
		if p, ok := downloaded[src]; ok {
			out = append(out, p)
			continue
		}
		info, err := os.Stat(src)
		if err != nil {
			return nil, eris.Wrapf(err, "disclosure: source %s", src)
		}
		if !info.IsDir() {
			out = append(out, src)
			continue
		}
		found, err := walkExtracts(src, pattern)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			zap.L().Warn("disclosure: no extracts in directory", zap.String("dir", src))
		}
		out = append(out, found...)
	}
	return out, nil
}

func walkExtracts(dir string, pattern *regexp.Regexp) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsExtract(d.Name()) {
			return nil
		}
		if pattern != nil && !pattern.MatchString(d.Name()) {
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "disclosure: walk %s", dir)
	}
	slices.Sort(found)
	return found, nil
}

// ReadAll reads every path in order as one record sequence.
func ReadAll(ctx context.Context, paths []string, opts Options) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, p := range paths {
			for rec, err := range ReadFile(ctx, p, opts) {
				if !yield(rec, err) {
					return
				}
			}
		}
	}
}
