package disclosure

import (
	"context"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/fetcher"
)

// minNameLength drops employer cells that are blank or a single character.
const minNameLength = 2

// Options controls how extracts are read and filtered.
type Options struct {
	// Encoding is "auto" (default) or a WHATWG encoding name.
	Encoding string
	// Years keeps only these fiscal years when non-empty.
	Years []int
	// States keeps only these two-letter petitioner states when non-empty.
	States []string
	// Sheet names the XLSX worksheet; the first sheet is used when empty.
	Sheet string
}

// Keep reports whether rec passes the year and state filters.
func (o Options) Keep(rec Record) bool {
	return o.keepYear(rec) && o.keepState(rec)
}

func (o Options) keepYear(rec Record) bool {
	return len(o.Years) == 0 || slices.Contains(o.Years, rec.FiscalYear)
}

func (o Options) keepState(rec Record) bool {
	return len(o.States) == 0 || slices.ContainsFunc(o.States, func(s string) bool {
		return strings.EqualFold(s, rec.State)
	})
}

// Read parses a delimited extract from r. Selected rows whose counters do
// not parse are yielded as a *ParseError and reading continues; any other error is
// yielded once and ends the sequence.
func Read(ctx context.Context, r io.Reader, source string, opts Options) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		decoded, err := fetcher.DecodeReader(r, opts.Encoding)
		if err != nil {
			yield(Record{}, err)
			return
		}

		delim := '\t'
		if strings.EqualFold(filepath.Ext(source), ".csv") {
			delim = ','
		}
		rowCh, errCh := fetcher.StreamCSV(ctx, decoded, fetcher.CSVOptions{
			Delimiter:  delim,
			LazyQuotes: true,
			SkipBlank:  true,
		})
		parseRows(source, rowCh, errCh, opts, yield)
	}
}

// ReadFile parses one local extract. Delimited text (.tsv, .csv, .txt),
// XLSX workbooks, and ZIP archives of either are supported.
func ReadFile(ctx context.Context, path string, opts Options) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx":
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			rowCh, errCh := fetcher.StreamXLSX(ctx, path, fetcher.XLSXOptions{SheetName: opts.Sheet})
			parseRows(path, rowCh, errCh, opts, yield)

		case ".zip":
			readZIP(ctx, path, opts, yield)

		default:
			f, err := os.Open(path)
			if err != nil {
				yield(Record{}, eris.Wrapf(err, "disclosure: open %s", path))
				return
			}
			defer f.Close() //nolint:errcheck
			for rec, err := range Read(ctx, f, path, opts) {
				if !yield(rec, err) {
					return
				}
			}
		}
	}
}

func readZIP(ctx context.Context, path string, opts Options, yield func(Record, error) bool) {
	dir, err := os.MkdirTemp("", "employer-resolve-zip-*")
	if err != nil {
		yield(Record{}, eris.Wrap(err, "disclosure: create temp dir"))
		return
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	files, err := fetcher.ExtractZIP(path, dir, func(name string) bool {
		return IsExtract(name) && !strings.EqualFold(filepath.Ext(name), ".zip")
	})
	if err != nil {
		yield(Record{}, err)
		return
	}
	slices.Sort(files)
	for _, file := range files {
		for rec, err := range ReadFile(ctx, file, opts) {
			if !yield(rec, err) {
				return
			}
		}
	}
}

// parseRows maps rows to records. It returns false when the consumer
// stopped early.
func parseRows(source string, rowCh <-chan fetcher.Row, errCh <-chan error, opts Options, yield func(Record, error) bool) bool {
	log := zap.L().With(zap.String("component", "disclosure"), zap.String("source", source))

	cols := DefaultColumns
	first := true
	var kept, skipped int
	for row := range rowCh {
		if first || (len(row.Fields) > 0 && normalizeCol(row.Fields[0]) == headerMarker) {
			wasFirst := first
			first = false
			if IsHeader(row.Fields) {
				if !wasFirst {
					continue
				}
				c, err := ColumnsFromHeader(row.Fields)
				if err != nil {
					yield(Record{}, err)
					return false
				}
				cols = c
				continue
			}
		}

		// Filter before parsing counters: malformed rows outside the
		// selection are skipped, not reported.
		rec := cols.identity(row.Fields, source, row.Line)
		if utf8.RuneCountInString(rec.EmployerName) < minNameLength || !opts.keepState(rec) {
			skipped++
			continue
		}
		err := cols.parseYear(&rec, row.Fields)
		if err == nil && !opts.keepYear(rec) {
			skipped++
			continue
		}
		if err == nil {
			err = cols.parseCounters(&rec, row.Fields)
		}
		if err != nil {
			if !yield(Record{}, err) {
				return false
			}
			continue
		}
		kept++
		if !yield(rec, nil) {
			return false
		}
	}

	for err := range errCh {
		if err != nil {
			yield(Record{}, eris.Wrapf(err, "disclosure: read %s", source))
			return false
		}
	}

	log.Debug("disclosure: read extract", zap.Int("records", kept), zap.Int("skipped", skipped))
	return true
}
