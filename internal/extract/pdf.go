package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/amishk599/pitchperfect/internal/model"
)

// extractPDF returns the plain text of each page in page-tree order, one
// newline between pages. The pdf package panics on some malformed inputs,
// so panics are reported as a corrupt document.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &model.CorruptDocumentError{Format: model.FormatPDF, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &model.CorruptDocumentError{Format: model.FormatPDF, Err: err}
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", &model.CorruptDocumentError{Format: model.FormatPDF, Err: fmt.Errorf("page %d missing from page tree", i)}
		}
		// A page without content streams is blank.
		if page.V.Key("Contents").IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", &model.CorruptDocumentError{Format: model.FormatPDF, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		pages = append(pages, strings.Trim(pageText, "\r\n"))
	}

	return strings.Join(pages, "\n"), nil
}
