package fetcher

import (
	"bufio"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// EncodingAuto sniffs a byte-order mark or UTF-16 zero bytes and falls back
// to UTF-8.
const EncodingAuto = "auto"

// DecodeReader wraps r so it yields UTF-8. Any encoding other than auto is
// resolved through the WHATWG index ("utf-16le", "windows-1252", "latin1").
func DecodeReader(r io.Reader, enc string) (io.Reader, error) {
	name := strings.ToLower(strings.TrimSpace(enc))
	if name == "" || name == EncodingAuto {
		return sniff(r), nil
	}
	if name == "utf-16" || name == "utf16" {
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	}

	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, eris.Wrapf(err, "decode: unsupported encoding %q", enc)
	}
	return transform.NewReader(r, e.NewDecoder()), nil
}

func sniff(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)

	var dec transform.Transformer
	switch {
	case hasBOM(head):
		dec = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	case len(head) >= 2 && head[0] != 0 && head[1] == 0:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	case len(head) >= 2 && head[0] == 0 && head[1] != 0:
		dec = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	default:
		dec = unicode.UTF8.NewDecoder()
	}
	return transform.NewReader(br, dec)
}

func hasBOM(b []byte) bool {
	switch {
	case len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		return true
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE:
		return true
	case len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF:
		return true
	}
	return false
}
