// SPDX-License-Identifier: Apache-2.0

package sheet

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectAndDecode strips any byte order mark and returns data as UTF-8
// together with the name of the detected encoding. Text that is neither
// marked nor valid UTF-8 is read as Latin-1, which never fails.
func DetectAndDecode(data []byte) ([]byte, string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], "utf-8-bom", nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return decode(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data, "utf-16le")
	case bytes.HasPrefix(data, bomUTF16BE):
		return decode(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), data, "utf-16be")
	case utf8.Valid(data):
		return data, "utf-8", nil
	}
	return decode(charmap.ISO8859_1, data, "latin-1")
}

func decode(enc encoding.Encoding, data []byte, name string) ([]byte, string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s decode failed: %w", name, err)
	}
	return out, name, nil
}
