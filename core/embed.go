package core

import "context"

// Embedder turns text into a fixed-dimension vector. The same embedder must
// be used for indexing entities and for recall scoring so distances are
// comparable. Embedding generation is an external call made around the core's
// CPU-bound logic; implementations own their network concerns.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
