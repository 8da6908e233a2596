package document

// streaming.go holds the reader wrappers applied to uploaded documents before
// tokenization. All of them work in O(buffer) memory.
//
//   - SanitizeUTF8: strips a UTF-8 BOM and replaces invalid sequences with U+FFFD
//   - SkipBOM: strips a UTF-8 BOM and passes all other bytes through untouched
//   - CountingReader: tracks bytes read for logging and size limits

import (
	"bufio"
	"bytes"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, utf8BOM)
}

// SanitizeUTF8 wraps r so that the BOM is dropped and every invalid byte is
// replaced with the Unicode replacement character.
func SanitizeUTF8(r io.Reader) io.Reader {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(r, dec)
}

// SkipBOM wraps r so that a leading UTF-8 BOM is dropped. Unlike SanitizeUTF8
// it leaves 8-bit bytes alone, which RTF relies on for code page text.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}
