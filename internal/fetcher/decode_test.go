package fetcher

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func encodeUTF16(t *testing.T, s string, order unicode.Endianness, bom unicode.BOMPolicy) []byte {
	t.Helper()
	out, err := unicode.UTF16(order, bom).NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func decodeAll(t *testing.T, data []byte, enc string) string {
	t.Helper()
	r, err := DecodeReader(bytes.NewReader(data), enc)
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestDecodeReader_Auto(t *testing.T) {
	const text = "Line by line\tEmployer\n1\tACME\n"

	tests := []struct {
		name string
		data []byte
	}{
		{"utf8", []byte(text)},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, text...)},
		{"utf16le bom", encodeUTF16(t, text, unicode.LittleEndian, unicode.UseBOM)},
		{"utf16be bom", encodeUTF16(t, text, unicode.BigEndian, unicode.UseBOM)},
		{"utf16le no bom", encodeUTF16(t, text, unicode.LittleEndian, unicode.IgnoreBOM)},
		{"utf16be no bom", encodeUTF16(t, text, unicode.BigEndian, unicode.IgnoreBOM)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, text, decodeAll(t, tt.data, EncodingAuto))
		})
	}
}

func TestDecodeReader_Named(t *testing.T) {
	latin, err := charmap.Windows1252.NewEncoder().String("CAFÉ MONDÉ LLC")
	require.NoError(t, err)
	assert.Equal(t, "CAFÉ MONDÉ LLC", decodeAll(t, []byte(latin), "windows-1252"))
	assert.Equal(t, "CAFÉ MONDÉ LLC", decodeAll(t, []byte(latin), "latin1"))

	utf16 := encodeUTF16(t, "ACME", unicode.LittleEndian, unicode.UseBOM)
	assert.Equal(t, "ACME", decodeAll(t, utf16, "utf-16"))
}

func TestDecodeReader_Unsupported(t *testing.T) {
	_, err := DecodeReader(strings.NewReader("x"), "klingon-8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported encoding")
}

func TestDecodeReader_Empty(t *testing.T) {
	assert.Equal(t, "", decodeAll(t, nil, ""))
}
