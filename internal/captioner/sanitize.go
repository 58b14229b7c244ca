package captioner

import (
	"regexp"
	"strings"
)

// MaxCaptionLength is the hard cap, in characters, on returned captions.
const MaxCaptionLength = 500

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	tagRe         = regexp.MustCompile(`(?s)<[^>]*>`)
)

// Sanitize treats model output as untrusted markup. Script blocks are removed
// with their content before generic tag stripping so a malformed tag cannot
// leave executable text behind; stray angle brackets are dropped, whitespace
// trimmed and the result truncated to MaxCaptionLength characters.
func Sanitize(raw string) string {
	s := scriptBlockRe.ReplaceAllString(raw, "")
	s = tagRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	s = strings.TrimSpace(s)

	if r := []rune(s); len(r) > MaxCaptionLength {
		s = strings.TrimSpace(string(r[:MaxCaptionLength]))
	}
	return s
}
