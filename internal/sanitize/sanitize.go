// Package sanitize cleans user-supplied strings before they reach prompts,
// storage keys, or the database.
package sanitize

import (
	"regexp"
	"strings"
)

const (
	maxInputLen    = 1000
	maxFileNameLen = 100
)

var (
	angleRe      = regexp.MustCompile(`[<>]`)
	jsProtoRe    = regexp.MustCompile(`(?i)javascript:`)
	handlerRe    = regexp.MustCompile(`(?i)on\w+=`)
	fileCharRe   = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	underscoreRe = regexp.MustCompile(`_{2,}`)
)

// Input strips markup and script vectors from short free-text fields and
// caps them at 1000 runes.
func Input(s string) string {
	s = angleRe.ReplaceAllString(s, "")
	s = jsProtoRe.ReplaceAllString(s, "")
	s = handlerRe.ReplaceAllString(s, "")
	return truncate(strings.TrimSpace(s), maxInputLen)
}

// FileName reduces a name to [A-Za-z0-9._-], collapsing runs of underscores,
// capped at 100 characters. Leading dots are replaced so the result never names a
// hidden file or a parent directory.
func FileName(name string) string {
	s := fileCharRe.ReplaceAllString(name, "_")
	if strings.HasPrefix(s, ".") {
		s = "_" + strings.TrimLeft(s, ".")
	}
	s = underscoreRe.ReplaceAllString(s, "_")
	return truncate(s, maxFileNameLen)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
