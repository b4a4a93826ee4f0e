package content

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	reURL        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	reMention    = regexp.MustCompile(`@[a-zA-Z0-9_]+`)
	reHashtag    = regexp.MustCompile(`#\w+`)
	reWhitespace = regexp.MustCompile(`\s+`)
	reControl    = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")
)

var spamPhrases = []string{
	"join channel",
	"click here",
	"subscribe now",
	"free signup",
}

// Cleaner strips transport noise from feed text and rejects items that
// are too short or promotional to republish.
type Cleaner struct {
	MinLen int
	MaxLen int
}

// Clean returns the cleaned text and true when it is publishable.
// Order matters: control chars first, then links/mentions/tags, then
// whitespace normalization, then the spam and length checks.
// Both bounds count runes, not bytes, so multi-byte scripts are
// measured the same as ASCII.
func (c Cleaner) Clean(text string) (string, bool) {
	if utf8.RuneCountInString(text) < c.MinLen {
		return "", false
	}
	text = reControl.ReplaceAllString(text, " ")
	text = reURL.ReplaceAllString(text, " ")
	text = reMention.ReplaceAllString(text, " ")
	text = reHashtag.ReplaceAllString(text, " ")
	text = strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))

	lower := strings.ToLower(text)
	for _, phrase := range spamPhrases {
		if strings.Contains(lower, phrase) {
			return "", false
		}
	}
	if utf8.RuneCountInString(text) < c.MinLen {
		return "", false
	}
	if runes := []rune(text); len(runes) > c.MaxLen {
		text = string(runes[:c.MaxLen])
	}
	return text, true
}
