package extract

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/pitchperfect/internal/model"
)

func TestExtract_PlainText(t *testing.T) {
	e := New(Options{})

	text, err := e.Extract(model.SourceDocument{Format: model.FormatPlainText, Data: []byte("Build a fraud detection model\r\nRemote OK")})
	require.NoError(t, err)
	assert.Equal(t, "Build a fraud detection model\nRemote OK", text)
}

func TestExtract_PlainTextDropsBOM(t *testing.T) {
	e := New(Options{})

	text, err := e.Extract(model.SourceDocument{Format: model.FormatPlainText, Data: []byte("\xef\xbb\xbfHello")})
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
}

func TestExtract_PlainTextEmpty(t *testing.T) {
	e := New(Options{})

	text, err := e.Extract(model.SourceDocument{Format: model.FormatPlainText, Data: nil})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtract_PlainTextInvalidUTF8(t *testing.T) {
	e := New(Options{})

	text, err := e.Extract(model.SourceDocument{Format: model.FormatPlainText, Data: []byte("caf\xe9 latte")})
	require.Error(t, err)
	assert.Empty(t, text)
	assert.NotContains(t, text, "�")

	var corrupt *model.CorruptDocumentError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, model.FormatPlainText, corrupt.Format)
	assert.Contains(t, err.Error(), "byte 3")
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := New(Options{})

	_, err := e.Extract(model.SourceDocument{Format: "odt", Data: []byte("x")})
	var unsupported *model.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, model.Format("odt"), unsupported.Format)
}

func TestExtract_TooLarge(t *testing.T) {
	e := New(Options{MaxBytes: 4})

	_, err := e.Extract(model.SourceDocument{Format: model.FormatPlainText, Data: []byte("hello")})
	assert.ErrorIs(t, err, model.ErrDocumentTooLarge)
}

func TestExtract_PDFSinglePage(t *testing.T) {
	e := New(Options{})

	text, err := e.Extract(model.SourceDocument{Format: model.FormatPDF, Data: buildPDF(t, "Hello World")})
	require.NoError(t, err)
	assert.Contains(t, text, "Hello World")
}

func TestExtract_PDFPagesInOrder(t *testing.T) {
	e := New(Options{})

	text, err := e.Extract(model.SourceDocument{Format: model.FormatPDF, Data: buildPDF(t, "First page", "Second page", "Third page")})
	require.NoError(t, err)

	first := strings.Index(text, "First page")
	second := strings.Index(text, "Second page")
	third := strings.Index(text, "Third page")
	require.True(t, first >= 0 && second >= 0 && third >= 0, "all pages extracted: %q", text)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.Contains(t, text[first:second], "\n")
}

func TestExtract_PDFBlank(t *testing.T) {
	e := New(Options{})

	text, err := e.Extract(model.SourceDocument{Format: model.FormatPDF, Data: buildPDF(t, "")})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtract_PDFCorrupt(t *testing.T) {
	e := New(Options{})

	valid := buildPDF(t, "Hello World")
	inputs := map[string][]byte{
		"not a pdf": []byte("this is definitely not a PDF document at all, just some plain words in a row"),
		"truncated": valid[:len(valid)/2],
		"empty":     nil,
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := e.Extract(model.SourceDocument{Format: model.FormatPDF, Data: data})
			var corrupt *model.CorruptDocumentError
			require.ErrorAs(t, err, &corrupt)
			assert.Equal(t, model.FormatPDF, corrupt.Format)
		})
	}
}

func TestExtract_DOCXParagraphs(t *testing.T) {
	e := New(Options{})
	data := buildDOCX(t, para("Senior Go Engineer")+para("")+para("Remote, full-time"))

	text, err := e.Extract(model.SourceDocument{Format: model.FormatDOCX, Data: data})
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Engineer\n\nRemote, full-time", text)
}

func TestExtract_DOCXSkipEmptyParagraphs(t *testing.T) {
	e := New(Options{SkipEmptyParagraphs: true})
	data := buildDOCX(t, para("Senior Go Engineer")+para("")+para("   ")+para("Remote, full-time"))

	text, err := e.Extract(model.SourceDocument{Format: model.FormatDOCX, Data: data})
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Engineer\nRemote, full-time", text)
}

func TestExtract_DOCXRunsTabsBreaksAndTables(t *testing.T) {
	e := New(Options{})
	body := `<w:p><w:r><w:t>Role:</w:t></w:r><w:r><w:tab/><w:t>Backend</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc>` + para("Cell text") + `</w:tc></w:tr></w:tbl>` +
		`<w:p><w:r><w:delText>deleted</w:delText><w:t>kept</w:t></w:r></w:p>`

	text, err := e.Extract(model.SourceDocument{Format: model.FormatDOCX, Data: buildDOCX(t, body)})
	require.NoError(t, err)
	assert.Equal(t, "Role:\tBackend\nLine one\nLine two\nCell text\nkept", text)
	assert.NotContains(t, text, "<")
}

func TestExtract_DOCXTextBoxOnceAfterAnchor(t *testing.T) {
	e := New(Options{})
	box := `<w:txbxContent>` + para("Boxed") + `</w:txbxContent>`
	body := para("Before") +
		`<w:p><w:r><w:t>Outer</w:t></w:r><w:r><mc:AlternateContent>` +
		`<mc:Choice Requires="wps"><w:drawing><wps:wsp><wps:txbx>` + box + `</wps:txbx></wps:wsp></w:drawing></mc:Choice>` +
		`<mc:Fallback><w:pict><v:shape><v:textbox>` + box + `</v:textbox></v:shape></w:pict></mc:Fallback>` +
		`</mc:AlternateContent></w:r></w:p>` +
		para("After")
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"` +
		` xmlns:wps="http://schemas.microsoft.com/office/word/2010/wordprocessingShape"` +
		` xmlns:v="urn:schemas-microsoft-com:vml"><w:body>` + body + `<w:sectPr/></w:body></w:document>`

	text, err := e.Extract(model.SourceDocument{Format: model.FormatDOCX, Data: buildDOCXRaw(t, document)})
	require.NoError(t, err)
	assert.Equal(t, "Before\nOuter\nBoxed\nAfter", text)
}

func TestExtract_DOCXBlank(t *testing.T) {
	e := New(Options{SkipEmptyParagraphs: true})

	text, err := e.Extract(model.SourceDocument{Format: model.FormatDOCX, Data: buildDOCX(t, para(""))})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtract_DOCXCorrupt(t *testing.T) {
	e := New(Options{})

	inputs := map[string][]byte{
		"not a zip":   []byte("PK but not really"),
		"broken xml":  buildDOCXRaw(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p>`),
		"no body":     buildDOCXRaw(t, `<root/>`),
		"empty input": nil,
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := e.Extract(model.SourceDocument{Format: model.FormatDOCX, Data: data})
			var corrupt *model.CorruptDocumentError
			require.ErrorAs(t, err, &corrupt)
			assert.Equal(t, model.FormatDOCX, corrupt.Format)
		})
	}
}

func TestExtract_DoesNotMutateSource(t *testing.T) {
	e := New(Options{})
	data := buildDOCX(t, para("Hello"))
	snapshot := bytes.Clone(data)

	_, err := e.Extract(model.SourceDocument{Format: model.FormatDOCX, Data: data})
	require.NoError(t, err)
	assert.Equal(t, snapshot, data)
}

func TestExtractFile_DispatchesByExtension(t *testing.T) {
	e := New(Options{})

	text, err := e.ExtractFile("JOB.TXT", strings.NewReader("Build a fraud detection model"))
	require.NoError(t, err)
	assert.Equal(t, "Build a fraud detection model", text)

	text, err = e.ExtractFile("job.docx", bytes.NewReader(buildDOCX(t, para("From docx"))))
	require.NoError(t, err)
	assert.Equal(t, "From docx", text)
}

func TestExtractFile_UnknownExtension(t *testing.T) {
	e := New(Options{})

	_, err := e.ExtractFile("job.rtf", strings.NewReader("{\\rtf1}"))
	var unsupported *model.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, model.Format("rtf"), unsupported.Format)
}

func TestExtractFile_LimitApplied(t *testing.T) {
	e := New(Options{MaxBytes: 8})

	_, err := e.ExtractFile("job.txt", strings.NewReader(strings.Repeat("a", 64)))
	assert.True(t, errors.Is(err, model.ErrDocumentTooLarge))
}
