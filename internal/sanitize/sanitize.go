// Package sanitize cleans raw model output before it is shown: it removes
// the model's restatement of its instructions, trailing meta-commentary,
// and excess blank lines.
package sanitize

import (
	"regexp"
	"strings"
)

// hspace matches horizontal whitespace at the start of a line.
const hspace = `[\t\v\f \x{85}\p{Z}]*`

var (
	// startMarker finds where the proposal itself begins: a "Subject:" or
	// "Dear" line (optionally behind markdown emphasis or a heading mark),
	// or a literal "Proposal:" anywhere.
	startMarker = regexp.MustCompile(`(?m)^` + hspace + `((?:[#*]+` + hspace + `)?(?:Subject:|Dear\b))|(Proposal:)`)

	// metaOpener finds the first line of trailing commentary addressed to the
	// user rather than the client.
	metaOpener = regexp.MustCompile(`(?m)^` + hspace + `(?:Please note|Let me know if|Note:|Feel free to (?:adjust|modify|customi[sz]e)|I hope this helps)`)

	// blankRun matches three or more newlines, where the blank lines between
	// them may hold spaces or tabs.
	blankRun = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
)

// Sanitize returns raw with instruction leakage and meta-commentary removed
// and whitespace normalized. It is total and idempotent.
func Sanitize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)

	text = cutBeforeStart(text)
	text = cutMetaCommentary(text)
	text = blankRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func cutBeforeStart(text string) string {
	loc := startMarker.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}
	// Group 1 is the line marker without its leading whitespace, group 2 the
	// inline "Proposal:".
	if loc[2] >= 0 {
		return text[loc[2]:]
	}
	return text[loc[4]:]
}

func cutMetaCommentary(text string) string {
	loc := metaOpener.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]]
}
