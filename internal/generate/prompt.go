package generate

import (
	"fmt"
	"strings"

	"github.com/motionai/motion-engine/internal/language"
)

// maxStyleReference bounds how much prior writing is sent as style reference.
const maxStyleReference = 6000

// Context is everything one generation call needs.
type Context struct {
	Transcription  string
	StyleReference string        // prior posts by the same user, may be empty
	TargetLanguage language.Code // empty = English
	SourceLanguage language.Code // language of the transcription, may be empty
	Template       string        // template ID or literal instructions; empty = default structure
}

func defaultStructure(lang string) string {
	return fmt.Sprintf(`Create a blog post with:
1. SEO-friendly title on first line
2. Engaging introduction
3. Main content with headings (##, ###)
4. Conclusion

Write the title, every heading and all body text in %s.`, lang)
}

// BuildPrompt assembles the single instruction sent to the generation chain.
// template holds resolved instructions; empty selects the default structure.
func BuildPrompt(gc Context, template string) string {
	target := targetLanguage(gc.TargetLanguage)

	var b strings.Builder
	b.WriteString("You are a skilled content writer. Convert this transcription into a well-structured blog post in Markdown format.\n\n")
	fmt.Fprintf(&b, "Target language: %s\n\n", target.Name())

	if style := tail(strings.TrimSpace(gc.StyleReference), maxStyleReference); style != "" {
		b.WriteString("Previous posts style reference:\n")
		b.WriteString(style)
		b.WriteString("\n\n")
	}

	if template = strings.TrimSpace(template); template != "" {
		b.WriteString(template)
		fmt.Fprintf(&b, "\n\nPut the title on the first line and write everything in %s.", target.Name())
	} else {
		b.WriteString(defaultStructure(target.Name()))
	}

	b.WriteString("\n\nTranscription: ")
	b.WriteString(gc.Transcription)
	return b.String()
}

// templatePrompt is the instruction used by GenerateWithTemplate.
func templatePrompt(instructions, transcription string, target language.Code) string {
	return fmt.Sprintf("%s\n\nTranscription: %s\n\nWrite in %s language. Use markdown formatting.",
		strings.TrimSpace(instructions), transcription, target.Name())
}

func targetLanguage(c language.Code) language.Code {
	if c == "" || !c.IsSupported() {
		return language.English
	}
	return c
}

// tail keeps the last n runes of s, where the most recent posts live.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// head returns the first n runes of s.
func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
