package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/amishk599/pitchperfect/internal/model"
)

// wordNS is the WordprocessingML main namespace. Elements from other
// namespaces (DrawingML shapes, VML) are not body text.
const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// mcNS is the markup-compatibility namespace. Word writes text boxes twice,
// under mc:Choice and again under mc:Fallback.
const mcNS = "http://schemas.openxmlformats.org/markup-compatibility/2006"

// paragraph is an open w:p plus the text-box paragraphs nested in it, which
// are emitted after it.
type paragraph struct {
	text   strings.Builder
	nested []string
}

func extractDOCX(data []byte, skipEmpty bool) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &model.CorruptDocumentError{Format: model.FormatDOCX, Err: err}
	}
	defer doc.Close()

	paragraphs, err := readParagraphs(doc.Editable().GetContent())
	if err != nil {
		return "", &model.CorruptDocumentError{Format: model.FormatDOCX, Err: err}
	}

	if skipEmpty {
		kept := paragraphs[:0]
		for _, p := range paragraphs {
			if strings.TrimSpace(p) != "" {
				kept = append(kept, p)
			}
		}
		paragraphs = kept
	}
	return strings.Join(paragraphs, "\n"), nil
}

// readParagraphs walks word/document.xml and returns the text of every w:p
// in document order, including paragraphs inside table cells. Text-box
// paragraphs follow the paragraph that anchors them.
func readParagraphs(documentXML string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		paragraphs []string
		open       []*paragraph
		inText     bool
		sawBody    bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == mcNS && t.Name.Local == "Fallback" {
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("parse document.xml: %w", err)
				}
				continue
			}
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "body":
				sawBody = true
			case "p":
				open = append(open, &paragraph{})
			case "t":
				inText = true
			case "tab":
				if len(open) > 0 {
					open[len(open)-1].text.WriteByte('\t')
				}
			case "br", "cr":
				if len(open) > 0 {
					open[len(open)-1].text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				if len(open) == 0 {
					continue
				}
				p := open[len(open)-1]
				open = open[:len(open)-1]
				done := append([]string{p.text.String()}, p.nested...)
				if len(open) > 0 {
					parent := open[len(open)-1]
					parent.nested = append(parent.nested, done...)
				} else {
					paragraphs = append(paragraphs, done...)
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && len(open) > 0 {
				open[len(open)-1].text.Write(t)
			}
		}
	}

	if !sawBody {
		return nil, errors.New("document.xml has no w:body")
	}
	return paragraphs, nil
}
