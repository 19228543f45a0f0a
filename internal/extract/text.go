package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/amishk599/pitchperfect/internal/model"
)

const utf8BOM = "\xef\xbb\xbf"

// extractPlainText decodes data as strict UTF-8. Invalid sequences fail the
// extraction instead of being replaced with U+FFFD.
func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &model.CorruptDocumentError{
			Format: model.FormatPlainText,
			Err:    fmt.Errorf("invalid UTF-8 at byte %d", invalidOffset(data)),
		}
	}
	return strings.TrimPrefix(string(data), utf8BOM), nil
}

func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
