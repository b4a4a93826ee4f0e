package content

import (
	"html"
	"strings"
)

var emojiKeywords = []struct {
	emoji string
	words []string
}{
	{"🔴", []string{"breaking", "urgent"}},
	{"⚔️", []string{"war", "attack", "strike"}},
	{"💣", []string{"explosion", "blast", "bomb"}},
	{"💵", []string{"dollar", "gold", "market"}},
	{"🗳️", []string{"election", "vote"}},
}

// Formatter renders cleaned text for the outbound sink: HTML-escaped,
// headline bolded with a keyword-driven emoji, signature appended.
type Formatter struct {
	Signature string
}

// Format escapes last so cleaning never sees entities. The first line
// becomes the bolded headline.
func (f Formatter) Format(text string) string {
	text = html.EscapeString(text)
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[0] != "" {
		lines[0] = "<b>" + headlineEmoji(text) + " " + lines[0] + "</b>"
	}
	out := strings.Join(lines, "\n")
	if f.Signature != "" {
		out += "\n\n" + f.Signature
	}
	return out
}

func headlineEmoji(text string) string {
	t := strings.ToLower(text)
	for _, k := range emojiKeywords {
		for _, w := range k.words {
			if strings.Contains(t, w) {
				return k.emoji
			}
		}
	}
	return "📰"
}
