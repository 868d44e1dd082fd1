// Package textclean removes OCR artifacts from document text.
//
// The functions here are pure and idempotent: applying them twice yields
// the same output as applying them once.
package textclean

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

// minRepeat is the run length at which a repeated line is collapsed.
const minRepeat = 3

var invisibleReplacer = strings.NewReplacer(
	"\u200B", "",
	"\u2060", "",
	"\u2061", "",
	"\u2062", "",
	"\u2063", "",
	"\u2064", "",
	"\uFEFF", "",
)

var codeLinePattern = regexp.MustCompile(
	`[{}<>;\[\]]|//|^\s*#include\b|\b(for|while|if|else|return|function|def|class|import)\s`,
)

// StripInvisible removes zero-width and invisible operator characters.
func StripInvisible(s string) string {
	return invisibleReplacer.Replace(s)
}

// LooksLikeCode reports whether a line appears to be source code.
// Repeated code lines are meaningful and must never be collapsed.
func LooksLikeCode(line string) bool {
	return codeLinePattern.MatchString(line)
}

// DedupeRepeatedLines collapses runs of three or more identical non-blank
// lines to the first occurrence. Lines are compared after trimming.
// Blank lines and code-like lines are kept as they are.
func DedupeRepeatedLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); {
		key := strings.TrimSpace(lines[i])
		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == key {
			j++
		}

		run := j - i
		if key != "" && run >= minRepeat && !LooksLikeCode(lines[i]) {
			out = append(out, lines[i])
		} else {
			out = append(out, lines[i:j]...)
		}
		i = j
	}

	return strings.Join(out, "\n")
}

// Normalise strips invisible characters and collapses repeated lines.
func Normalise(s string) string {
	return DedupeRepeatedLines(StripInvisible(s))
}

// WordCount counts whitespace-delimited tokens containing a letter or digit.
// Markdown markers such as "##" or "-" are not words.
func WordCount(s string) int {
	count := 0
	for _, field := range strings.Fields(s) {
		for _, r := range field {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				count++
				break
			}
		}
	}
	return count
}

// ReadingTime returns the estimated reading time in whole minutes, rounded up.
func ReadingTime(words int) int {
	if words <= 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}
