package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"rag-engine/internal/models"
)

// HashingEmbedder is the local fallback used when no embeddings API key
// is configured. It hashes tokens into a fixed number of buckets and
// weights by term frequency, then L2-normalizes. Unlike a vocabulary
// TF-IDF, feature hashing needs no corpus preparation, so vectors stay
// comparable across uploads that happen at different times.
type HashingEmbedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewHashingEmbedder creates a hashing embedder at the index dimension.
func NewHashingEmbedder() *HashingEmbedder {
	return &HashingEmbedder{
		dimension:    models.EmbeddingDim,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

func (e *HashingEmbedder) Name() string { return "hashing" }

func (e *HashingEmbedder) Dimension() int { return e.dimension }

// EmbedBatch embeds each text independently; no external calls.
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

func (e *HashingEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)

	total := 0
	for _, tok := range e.tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		vec[h.Sum64()%uint64(e.dimension)]++
		total++
	}
	if total == 0 {
		return vec
	}

	// L2 normalize so dot product equals cosine similarity.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func (e *HashingEmbedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again",
		"than", "so", "such", "into", "about", "between", "through",
		"during", "before", "after", "above", "below", "out", "off",
		"own", "same", "too", "very", "can", "will", "just", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
