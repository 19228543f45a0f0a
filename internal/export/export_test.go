package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultFilename},
		{"   ", DefaultFilename},
		{"proposal.txt", "proposal.txt"},
		{"notes.MD", "notes.MD"},
		{"freelance_proposal.docx", "freelance_proposal.txt"},
		{"old.doc", "old.txt"},
		{"letter.odt", "letter.txt"},
		{"letter.rtf", "letter.txt"},
		{"proposal", "proposal.txt"},
		{".docx", DefaultFilename},
		{"../../etc/passwd", "passwd.txt"},
		{"dir/inner.md", "inner.md"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.in))
		})
	}
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "text/plain; charset=utf-8", MediaType("a.txt"))
	assert.Equal(t, "text/markdown; charset=utf-8", MediaType("a.md"))
	assert.Equal(t, "text/plain; charset=utf-8", MediaType("a.docx"))
	assert.Equal(t, "text/plain; charset=utf-8", MediaType(""))
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, "attachment; filename=freelance_proposal.txt", ContentDisposition("freelance_proposal.docx"))
	assert.Equal(t, `attachment; filename="my proposal.md"`, ContentDisposition("my proposal.md"))
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := Write(dir, "proposal.docx", "Dear Sam,\n\nHello.")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "proposal.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Dear Sam,\n\nHello.\n", string(data))
}

func TestWrite_DefaultName(t *testing.T) {
	dir := t.TempDir()

	path, err := Write(dir, "", "Dear Sam")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFilename), path)
}

func TestWrite_Overwrites(t *testing.T) {
	dir := t.TempDir()

	_, err := Write(dir, "p.txt", "first")
	require.NoError(t, err)
	path, err := Write(dir, "p.txt", "second")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))
}
