package disclosure

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/employer-resolve/internal/fetcher"
)

// ReadNames reads one employer name per line, skipping blank lines.
func ReadNames(r io.Reader, encoding string) ([]string, error) {
	decoded, err := fetcher.DecodeReader(r, encoding)
	if err != nil {
		return nil, err
	}

	var names []string
	sc := bufio.NewScanner(decoded)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "disclosure: read names")
	}
	return names, nil
}

// ReadNamesFile is ReadNames over a file path.
func ReadNamesFile(path, encoding string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "disclosure: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadNames(f, encoding)
}
