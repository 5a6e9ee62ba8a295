package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/motionai/motion-engine/internal/llm"
)

// SEO holds search optimization suggestions for a post.
type SEO struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords"`
	Headings        []string `json:"headings"`
}

// DefaultSEO is returned when the model's answer is unusable.
func DefaultSEO() SEO {
	return SEO{
		Title:           "Generated Blog Post",
		MetaDescription: "AI-generated blog post from video transcription",
		Keywords:        []string{"blog", "ai", "content"},
		Headings:        []string{"Introduction", "Main Content", "Conclusion"},
	}
}

const seoSchema = `{
  "type": "object",
  "required": ["title", "meta_description", "keywords", "headings"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "meta_description": {"type": "string", "minLength": 1},
    "keywords": {"type": "array", "minItems": 1, "items": {"type": "string"}},
    "headings": {"type": "array", "items": {"type": "string"}}
  }
}`

var seoValidator = func() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("seo.json", strings.NewReader(seoSchema)); err != nil {
		panic(fmt.Sprintf("seo schema resource: %v", err))
	}
	return c.MustCompile("seo.json")
}()

// Platform is a social network a post can be adapted for.
type Platform string

const (
	Twitter   Platform = "twitter"
	LinkedIn  Platform = "linkedin"
	Facebook  Platform = "facebook"
	Instagram Platform = "instagram"
)

var platformSpecs = map[Platform]string{
	Twitter:   "280 characters, engaging, use hashtags",
	LinkedIn:  "Professional tone, 1300 characters, include call-to-action",
	Facebook:  "Conversational, 500 characters, encourage engagement",
	Instagram: "Visual-focused caption, 150 words, use emojis and hashtags",
}

// ParsePlatform validates a platform name.
func ParsePlatform(s string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	_, ok := platformSpecs[p]
	return p, ok
}

// SEOSuggestions asks the chain for SEO metadata. Replies that are not valid
// JSON or do not match the expected shape yield DefaultSEO.
func (s *Service) SEOSuggestions(ctx context.Context, content string) SEO {
	prompt := fmt.Sprintf(`Analyze this blog content and provide SEO suggestions:

Content: %s

Provide:
1. SEO-optimized title (max 60 chars)
2. Meta description (max 160 chars)
3. 5-8 relevant keywords
4. Suggested H2/H3 headings

Format as JSON: {"title": "", "meta_description": "", "keywords": [], "headings": []}`, content)

	out, err := s.run(ctx, "seo", llm.Request{Prompt: prompt, Temperature: 0.3, JSON: true})
	if err != nil {
		return DefaultSEO()
	}
	seo, err := parseSEO(out.Value)
	if err != nil {
		s.log.Warn().Err(err).Str("provider", out.Provider).Msg("invalid SEO payload, using defaults")
		return DefaultSEO()
	}
	return seo
}

func parseSEO(content string) (SEO, error) {
	raw := llm.ExtractJSON(content)
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return SEO{}, fmt.Errorf("parse json: %w", err)
	}
	if err := seoValidator.Validate(doc); err != nil {
		return SEO{}, fmt.Errorf("validate: %w", err)
	}
	var seo SEO
	if err := json.Unmarshal([]byte(raw), &seo); err != nil {
		return SEO{}, fmt.Errorf("decode: %w", err)
	}
	return seo, nil
}

// SocialPost adapts content for a social platform.
func (s *Service) SocialPost(ctx context.Context, content string, platform Platform) string {
	prompt := fmt.Sprintf(`Create a %s post from this blog content:

%s

Requirements: %s

Make it engaging and platform-appropriate.`, platform, content, platformSpecs[platform])

	out, err := s.run(ctx, "social", llm.Request{Prompt: prompt, Temperature: 0.8})
	if err != nil {
		return "Check out this new blog post! " + head(content, 100) + "..."
	}
	return out.Value
}

// EmailNewsletter turns content into an HTML newsletter.
func (s *Service) EmailNewsletter(ctx context.Context, content string) string {
	prompt := fmt.Sprintf(`Transform this blog content into an email newsletter:

%s

Include:
1. Catchy subject line
2. Personal greeting
3. Brief intro
4. Key highlights (3-4 points)
5. Call-to-action
6. Sign-off

Format as HTML email template.`, content)

	out, err := s.run(ctx, "email", llm.Request{Prompt: prompt, Temperature: 0.7})
	if err != nil {
		return "<h2>Newsletter</h2><p>" + head(content, 200) + "...</p>"
	}
	return out.Value
}

// PodcastShowNotes builds markdown show notes from a transcription.
func (s *Service) PodcastShowNotes(ctx context.Context, transcription string) string {
	prompt := fmt.Sprintf(`Create podcast show notes from this transcription:

%s

Include:
1. Episode summary (2-3 sentences)
2. Key topics discussed
3. Timestamps for major topics
4. Guest information (if mentioned)
5. Resources mentioned
6. Action items for listeners

Format in markdown.`, transcription)

	out, err := s.run(ctx, "podcast", llm.Request{Prompt: prompt, Temperature: 0.6})
	if err != nil {
		return "# Podcast Show Notes\n\n## Summary\n" + head(transcription, 300) + "..."
	}
	return out.Value
}
