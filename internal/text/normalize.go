// Package text normalizes user input before it is sent for speech synthesis.
package text

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Punctuation and formatting constants.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsis     = "..."
	ellipsisChar = "…"
)

const whitespaceRegexPattern = `\s+`

// ErrTextEmpty indicates that nothing speakable remains after normalization.
var ErrTextEmpty = errors.New("text cannot be empty")

// Normalizer cleans utterance text.
type Normalizer struct {
	whitespacePattern *regexp.Regexp
	quoteReplacer     *strings.Replacer
}

// NewNormalizer creates a Normalizer with its patterns compiled up front.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		whitespacePattern: regexp.MustCompile(whitespaceRegexPattern),
		quoteReplacer: strings.NewReplacer(
			emDash, "-",
			enDash, "-",
			figureDash, "-",
			ellipsisChar, ellipsis,
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
		),
	}
}

// Normalize collapses whitespace, normalizes quotes and dashes and squeezes
// runs of the same punctuation mark. It returns ErrTextEmpty when the
// result is blank.
func (n *Normalizer) Normalize(input string) (string, error) {
	out := n.whitespacePattern.ReplaceAllString(input, " ")
	out = n.quoteReplacer.Replace(out)
	out = squeezeRepeatedPunctuation(out)
	out = strings.TrimSpace(out)

	if out == "" {
		return "", ErrTextEmpty
	}

	return out, nil
}

// squeezeRepeatedPunctuation collapses runs of one punctuation mark ("!!!"
// becomes "!"). Ellipses are kept.
func squeezeRepeatedPunctuation(input string) string {
	var (
		builder strings.Builder
		last    rune
	)

	builder.Grow(len(input))

	for _, char := range input {
		if char == last && unicode.IsPunct(char) && char != '.' {
			continue
		}

		builder.WriteRune(char)

		last = char
	}

	return builder.String()
}
