// Package embedding provides text embedding clients, a flat nearest-neighbour
// index over embedding vectors, and file-backed embedding caches.
package embedding

import "context"

// Embedder converts text into a fixed-length vector. Implementations are
// deterministic for a fixed model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one entry per input text. Iteration order of the
	// result is not defined.
	EmbedBatch(ctx context.Context, texts []string) (map[string][]float32, error)
}
