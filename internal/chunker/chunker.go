// Package chunker splits raw text into overlapping, bounded-size
// passages suitable for embedding and retrieval.
package chunker

import "strings"

// Default splitting parameters.
const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// Split cuts text into chunks of at most size runes, with overlap runes
// shared between consecutive chunks. Cuts prefer paragraph breaks, then
// line breaks, then sentence ends, then word breaks, before falling back
// to a hard cut at the size limit.
//
// Every chunk is a contiguous slice of the input and each chunk starts
// exactly overlap runes before the previous one ended, so concatenating
// the first chunk with every later chunk minus its first overlap runes
// reconstructs the input exactly. Output is fully determined by the
// input and the two parameters.
//
// Empty input yields no chunks; any non-empty input yields at least one.
func Split(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultSize
	}
	overlap = EffectiveOverlap(size, overlap)

	runes := []rune(text)
	var chunks []string

	start := 0
	for {
		if len(runes)-start <= size {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}
		cut := findCut(runes, start, size, overlap)
		chunks = append(chunks, string(runes[start:cut]))
		start = cut - overlap
	}
}

// EffectiveOverlap returns the overlap Split actually applies for the
// given parameters. Negative values become zero, and overlap beyond half
// the chunk size is clamped to size/2: a larger overlap would stall the
// cursor.
func EffectiveOverlap(size, overlap int) int {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		return 0
	}
	if overlap > size/2 {
		return size / 2
	}
	return overlap
}

// findCut picks the cut position for the chunk beginning at start. Only
// the back half of the window is searched so chunks never shrink below
// half the target size, which also keeps the cursor advancing past the
// overlap region.
func findCut(runes []rune, start, size, overlap int) int {
	hi := start + size
	lo := start + size/2
	if min := start + overlap + 1; lo < min {
		lo = min
	}

	// Paragraph break: cut after the blank line.
	for i := hi - 2; i >= lo; i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i + 2
		}
	}
	// Line break.
	for i := hi - 1; i >= lo; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	// Sentence end followed by whitespace.
	for i := hi - 2; i >= lo; i-- {
		if isSentenceEnd(runes[i]) && isSpace(runes[i+1]) {
			return i + 1
		}
	}
	// Word break.
	for i := hi - 1; i >= lo; i-- {
		if isSpace(runes[i]) {
			return i + 1
		}
	}
	// Hard cut.
	return hi
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// Reassemble is the inverse of Split for a given overlap: it drops the
// first overlap runes of every chunk after the first and concatenates
// the rest. The overlap must be the one Split actually applied; when in
// doubt pass EffectiveOverlap(size, overlap), since Split clamps what it
// was given. Exported for use in tests and integrity checks.
func Reassemble(chunks []string, overlap int) string {
	if len(chunks) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		runes := []rune(c)
		if len(runes) <= overlap {
			continue
		}
		sb.WriteString(string(runes[overlap:]))
	}
	return sb.String()
}
