// Package export writes a finished proposal as a plain-text or markdown
// artifact.
package export

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFilename is used when the caller supplies no usable name.
const DefaultFilename = "freelance_proposal.txt"

const (
	mediaPlain    = "text/plain; charset=utf-8"
	mediaMarkdown = "text/markdown; charset=utf-8"
)

// Filename returns name reduced to its base and labelled with an extension
// that matches the content. Proposals are always text, so word-processor
// extensions and a missing extension become .txt.
func Filename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return DefaultFilename
	}

	ext := filepath.Ext(name)
	switch strings.ToLower(ext) {
	case ".txt", ".md":
		return name
	default:
		stem := strings.TrimSuffix(name, ext)
		if stem == "" {
			return DefaultFilename
		}
		return stem + ".txt"
	}
}

// MediaType returns the Content-Type for a proposal saved as filename.
func MediaType(filename string) string {
	if strings.EqualFold(filepath.Ext(Filename(filename)), ".md") {
		return mediaMarkdown
	}
	return mediaPlain
}

// ContentDisposition returns an attachment header value for filename.
func ContentDisposition(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": Filename(filename)})
}

// Write saves proposal under dir and returns the path written. dir is
// created if needed; an existing file is overwritten.
func Write(dir, filename, proposal string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, Filename(filename))
	content := strings.TrimRight(proposal, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write proposal: %w", err)
	}
	return path, nil
}
