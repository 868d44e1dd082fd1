// Package placeholder shields image references from LLM rewriting.
//
// Image markdown and figure references are swapped for opaque tokens before
// a chunk is sent to the model and swapped back afterwards.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
)

// patterns are applied in priority order. Earlier matches are masked before
// later patterns run; a generic image whose alt text held a figure reference
// captures that reference's token.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)!\[(?:img|image)-(\d+)\.(jpe?g|png|gif|webp)\]\([^)]+\)`),
	regexp.MustCompile(`(?i)\[(?:Image|Figure|Fig\.?)[\s\x{00A0}]*[:#]?[\s\x{00A0}]*(\d+)\]`),
	regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`),
}

// Masked is a chunk with its image references replaced by tokens.
type Masked struct {
	// Text is the masked chunk.
	Text string

	tokens   []string
	original map[string]string
}

// Mask replaces every image reference in text with a unique token.
// Tokens that already occur literally in text are never issued.
func Mask(text string) *Masked {
	m := &Masked{original: make(map[string]string)}
	counter := 0

	next := func() string {
		for {
			token := fmt.Sprintf("__IMAGE_PLACEHOLDER_%d__", counter)
			counter++
			if !strings.Contains(text, token) {
				return token
			}
		}
	}

	masked := text
	for _, re := range patterns {
		masked = re.ReplaceAllStringFunc(masked, func(match string) string {
			token := next()
			m.tokens = append(m.tokens, token)
			m.original[token] = match
			return token
		})
	}

	m.Text = masked
	return m
}

// Len returns the number of masked references.
func (m *Masked) Len() int {
	return len(m.tokens)
}

// Restore substitutes every token in s with the text it replaced.
// Unknown tokens are left as they are. Tokens are restored newest first
// because a later pattern may have captured text holding an earlier token.
func (m *Masked) Restore(s string) string {
	for i := len(m.tokens) - 1; i >= 0; i-- {
		token := m.tokens[i]
		s = strings.ReplaceAll(s, token, m.original[token])
	}
	return s
}

// Original returns the text a token replaced.
func (m *Masked) Original(token string) (string, bool) {
	v, ok := m.original[token]
	return v, ok
}
