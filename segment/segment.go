// Package segment splits a Markdown body into paragraph-aligned chunks
// small enough for a single translation request, and joins translated
// chunks back together.
//
// Paragraphs are separated by a blank line. Chunks are built greedily from
// left to right and never split a paragraph: a paragraph longer than the
// limit becomes a chunk of its own. Lengths are counted in Unicode code
// points. Join(Split(body, n)) == body for every body and n.
package segment

import (
	"strings"
	"unicode/utf8"
)

// Delimiter separates paragraphs.
const Delimiter = "\n\n"

// NormalizeNewlines converts CRLF line endings to LF so that blank lines
// written on Windows still separate paragraphs.
func NormalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// Split groups the paragraphs of body into segments of at most maxLength
// code points. maxLength < 1 puts every paragraph in its own segment.
// Only LF blank lines separate paragraphs; see NormalizeNewlines.
func Split(body string, maxLength int) []string {
	paragraphs := strings.Split(body, Delimiter)
	delimLen := utf8.RuneCountInString(Delimiter)

	var segments []string
	var current strings.Builder
	currentLen := 0
	started := false

	for _, p := range paragraphs {
		pLen := utf8.RuneCountInString(p)
		if !started {
			current.WriteString(p)
			currentLen = pLen
			started = true
			continue
		}
		if currentLen+pLen+delimLen <= maxLength {
			current.WriteString(Delimiter)
			current.WriteString(p)
			currentLen += delimLen + pLen
			continue
		}
		segments = append(segments, current.String())
		current.Reset()
		current.WriteString(p)
		currentLen = pLen
	}
	if started {
		segments = append(segments, current.String())
	}
	return segments
}

// Join concatenates segments with the paragraph delimiter.
func Join(segments []string) string {
	return strings.Join(segments, Delimiter)
}

// Len returns the length of s as counted by Split.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Blank reports whether a segment has nothing worth translating.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
