package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	assert.Empty(t, Split("", 500, 50))
}

func TestSplitShortInput(t *testing.T) {
	chunks := Split("hello world", 500, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplitReconstruction(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{
			name:    "long prose",
			text:    strings.Repeat("The quick brown fox jumps over the lazy dog. ", 70),
			size:    500,
			overlap: 50,
		},
		{
			name:    "paragraphs",
			text:    strings.Repeat("First paragraph with some words.\n\nSecond paragraph follows here.\n\n", 30),
			size:    200,
			overlap: 20,
		},
		{
			name:    "no natural boundaries",
			text:    strings.Repeat("x", 2000),
			size:    300,
			overlap: 30,
		},
		{
			name:    "multibyte runes",
			text:    strings.Repeat("日本語のテキストです。これは分割のテストです。 ", 100),
			size:    150,
			overlap: 15,
		},
		{
			name:    "zero overlap",
			text:    strings.Repeat("Sentence one. Sentence two. Sentence three. ", 50),
			size:    250,
			overlap: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.text, tt.size, tt.overlap)
			require.NotEmpty(t, chunks)

			for i, c := range chunks {
				assert.LessOrEqual(t, len([]rune(c)), tt.size, "chunk %d exceeds size", i)
				assert.NotEmpty(t, c, "chunk %d is empty", i)
			}

			assert.Equal(t, tt.text, Reassemble(chunks, tt.overlap))
		})
	}
}

func TestSplitOverlapIsSharedText(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 70)
	overlap := 50
	chunks := Split(text, 500, overlap)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		tail := string(prev[len(prev)-overlap:])
		head := string(cur[:overlap])
		assert.Equal(t, tail, head, "chunks %d and %d do not share %d runes", i-1, i, overlap)
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("Deterministic output matters for content hashing. ", 60)
	assert.Equal(t, Split(text, 400, 40), Split(text, 400, 40))
}

func TestSplitChunkCountScales(t *testing.T) {
	// ~3200 runes at size 500 should land around seven chunks; the exact
	// count depends on where boundaries fall, so assert a range.
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 70)
	chunks := Split(text, 500, 50)
	assert.GreaterOrEqual(t, len(chunks), 6)
	assert.LessOrEqual(t, len(chunks), 10)
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	para := strings.Repeat("word ", 50) // 250 runes
	text := para + "\n\n" + para + "\n\n" + para
	chunks := Split(text, 300, 20)
	require.Greater(t, len(chunks), 1)

	// The first cut should land right after a paragraph break rather
	// than mid-word.
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"),
		"first chunk should end at a paragraph break, got %q", chunks[0][len(chunks[0])-10:])
}

func TestSplitClampsExcessiveOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij ", 100)
	// Overlap equal to size would stall; it gets clamped to size/2, and
	// EffectiveOverlap reports what Split actually applied.
	chunks := Split(text, 100, 100)
	require.NotEmpty(t, chunks)
	assert.Equal(t, text, Reassemble(chunks, EffectiveOverlap(100, 100)))
}

func TestEffectiveOverlap(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		want    int
	}{
		{name: "within bounds", size: 500, overlap: 50, want: 50},
		{name: "negative becomes zero", size: 500, overlap: -1, want: 0},
		{name: "clamped to half size", size: 100, overlap: 100, want: 50},
		{name: "exactly half size", size: 100, overlap: 50, want: 50},
		{name: "invalid size uses default", size: 0, overlap: 300, want: DefaultSize / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveOverlap(tt.size, tt.overlap)
			assert.Equal(t, tt.want, got)

			text := strings.Repeat("round trip text here. ", 60)
			assert.Equal(t, text, Reassemble(Split(text, tt.size, tt.overlap), got))
		})
	}
}

func TestSplitDefaultsOnInvalidSize(t *testing.T) {
	text := strings.Repeat("some text here. ", 100)
	chunks := Split(text, 0, -5)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), DefaultSize)
	}
	assert.Equal(t, text, Reassemble(chunks, 0))
}

func TestReassembleEmpty(t *testing.T) {
	assert.Equal(t, "", Reassemble(nil, 50))
}
