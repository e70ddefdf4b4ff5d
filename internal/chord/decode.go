package chord

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// fallbackEncodings are tried in order when a table is not valid UTF-8.
// Latin-1 maps every byte, so it always succeeds.
var fallbackEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"cp949", korean.EUCKR},
	{"cp932", japanese.ShiftJIS},
	{"latin1", charmap.ISO8859_1},
}

// ReadText loads a table file and returns its contents as UTF-8 along with
// the name of the encoding it was decoded from.
func ReadText(path string) ([]byte, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return decodeText(raw)
}

func decodeText(raw []byte) ([]byte, string, error) {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return raw[3:], "utf-8-sig", nil
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}), bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		out, err := decodeWith(raw, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))
		if err != nil {
			return nil, "", fmt.Errorf("decode utf-16: %w", err)
		}
		return out, "utf-16", nil
	case utf8.Valid(raw):
		return raw, "utf-8", nil
	}

	for _, fe := range fallbackEncodings {
		out, err := decodeWith(raw, fe.enc)
		if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
			continue
		}
		return out, fe.name, nil
	}
	return nil, "", fmt.Errorf("no known text encoding fits the table")
}

func decodeWith(raw []byte, enc encoding.Encoding) ([]byte, error) {
	r := transform.NewReader(bytes.NewReader(raw), enc.NewDecoder())
	return io.ReadAll(r)
}
