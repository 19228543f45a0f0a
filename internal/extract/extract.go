// Package extract converts uploaded job descriptions (PDF, DOCX, plain text)
// into a single normalized text string.
package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/amishk599/pitchperfect/internal/model"
)

// Ensure Extractor implements model.Extractor.
var _ model.Extractor = (*Extractor)(nil)

// Options tunes extraction behaviour.
type Options struct {
	// SkipEmptyParagraphs drops empty DOCX paragraphs instead of keeping them
	// as empty lines.
	SkipEmptyParagraphs bool
	// MaxBytes rejects larger documents. Zero disables the limit.
	MaxBytes int64
}

// Extractor dispatches a SourceDocument to the parser for its format.
// It holds no state between calls and is safe for concurrent use.
type Extractor struct {
	opts Options
}

// New returns an Extractor configured with opts.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// Extract returns the human-readable text of doc. Pages (PDF) and paragraphs
// (DOCX) are joined with a single newline in document order.
func (e *Extractor) Extract(doc model.SourceDocument) (string, error) {
	if e.opts.MaxBytes > 0 && int64(len(doc.Data)) > e.opts.MaxBytes {
		return "", fmt.Errorf("extract %s (%d bytes, limit %d): %w", doc.Format, len(doc.Data), e.opts.MaxBytes, model.ErrDocumentTooLarge)
	}

	var (
		text string
		err  error
	)
	switch doc.Format {
	case model.FormatPDF:
		text, err = extractPDF(doc.Data)
	case model.FormatDOCX:
		text, err = extractDOCX(doc.Data, e.opts.SkipEmptyParagraphs)
	case model.FormatPlainText:
		text, err = extractPlainText(doc.Data)
	default:
		return "", &model.UnsupportedFormatError{Format: doc.Format}
	}
	if err != nil {
		return "", err
	}
	return normalizeNewlines(text), nil
}

// ExtractFile reads r once and extracts it using the format implied by the
// extension of name.
func (e *Extractor) ExtractFile(name string, r io.Reader) (string, error) {
	format, ok := model.FormatFromFilename(name)
	if !ok {
		return "", &model.UnsupportedFormatError{Format: model.Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."))}
	}

	if e.opts.MaxBytes > 0 {
		r = io.LimitReader(r, e.opts.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return e.Extract(model.SourceDocument{Name: name, Format: format, Data: data})
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
