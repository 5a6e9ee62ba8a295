package generate

import (
	"fmt"
	"strings"
	"time"
)

const fallbackTitle = "AI Generated Blog Post"

// FallbackDocument builds the post returned when every generation provider
// failed. The transcription is embedded verbatim.
func FallbackDocument(transcription string, now time.Time) string {
	return fmt.Sprintf(`# %s

## Introduction

This blog post was generated from an audio transcription containing %d words.

## Content

%s

## Summary

The above content was automatically transcribed and formatted into this blog post structure. You can edit and enhance this content using the editor.

---

*Generated on %s*`, fallbackTitle, len(strings.Fields(transcription)), transcription, now.Format("1/2/2006"))
}

// SplitTitle separates the first non-blank line (the title) from the body.
// Leading markdown heading markers are stripped from the title.
func SplitTitle(text string) (title, body string) {
	text = strings.TrimSpace(text)
	first, rest, _ := strings.Cut(text, "\n")
	title = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(first), "#"))
	// models sometimes bold the title instead of using a heading
	title = strings.TrimSpace(strings.Trim(title, "*"))
	if title == "" {
		title = "Untitled"
	}
	return title, strings.TrimSpace(rest)
}
