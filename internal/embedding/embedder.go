// Package embedding turns text into the fixed-dimension vectors stored
// and searched by the index.
package embedding

import "context"

// Embedder converts text into numeric vectors. Implementations must be
// deterministic for identical input and must always produce vectors of
// Dimension() length, matching the index's vector column.
type Embedder interface {
	Name() string
	Dimension() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
