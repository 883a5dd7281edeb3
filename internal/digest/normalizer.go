package digest

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ErrNotUTF8 is returned when a manifest is not valid UTF-8 after BOM removal.
var ErrNotUTF8 = errors.New("content is not valid UTF-8")

var boms = []struct {
	bom []byte
	enc encoding.Encoding // nil when the content is already UTF-8
}{
	{[]byte{0x00, 0x00, 0xFE, 0xFF}, utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)},
	// UTF-32LE is checked before UTF-16LE, which shares its prefix.
	{[]byte{0xFF, 0xFE, 0x00, 0x00}, utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)},
	{[]byte{0xEF, 0xBB, 0xBF}, nil},
	{[]byte{0xFE, 0xFF}, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
	{[]byte{0xFF, 0xFE}, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
}

// Normalize strips a leading byte order mark, decodes UTF-16 and UTF-32
// content to UTF-8, rejects invalid UTF-8 and converts CRLF and lone CR line
// endings to LF, so a manifest saved by Notepad hashes the same as one
// written on Linux. Content holding NUL bytes without a BOM is rejected.
func Normalize(content []byte) ([]byte, error) {
	for _, b := range boms {
		if !bytes.HasPrefix(content, b.bom) {
			continue
		}
		content = content[len(b.bom):]
		if b.enc != nil {
			decoded, err := b.enc.NewDecoder().Bytes(content)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrNotUTF8, err)
			}
			content = decoded
		}
		break
	}
	if !utf8.Valid(content) || bytes.IndexByte(content, 0) >= 0 {
		return nil, ErrNotUTF8
	}
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(content, []byte("\r"), []byte("\n")), nil
}
