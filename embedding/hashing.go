package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/hupe1980/taskvoice/core"
)

// DefaultHashingDim is the vector width of the hashing embedder.
const DefaultHashingDim = 256

// HashingOptions configure the hashing embedder.
type HashingOptions struct {
	Dim int
}

// HashingEmbedder maps text to a fixed-width vector by feature-hashing its
// word unigrams and bigrams. It needs no network and is fully deterministic:
// identical texts produce identical vectors and texts sharing words land near
// each other under cosine similarity. Useful for tests and offline setups;
// production recall quality comes from a learned embedder.
type HashingEmbedder struct {
	dim int
}

var _ core.Embedder = (*HashingEmbedder)(nil)

// NewHashingEmbedder constructs a hashing embedder.
func NewHashingEmbedder(optFns ...func(o *HashingOptions)) *HashingEmbedder {
	opts := HashingOptions{Dim: DefaultHashingDim}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Dim <= 0 {
		opts.Dim = DefaultHashingDim
	}
	return &HashingEmbedder{dim: opts.Dim}
}

// Embed returns the l2-normalized feature-hash vector for text.
func (e *HashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	words := strings.Fields(strings.ToLower(text))
	for i, w := range words {
		e.add(vec, w)
		if i+1 < len(words) {
			e.add(vec, w+" "+words[i+1])
		}
	}
	normalize(vec)
	return vec, nil
}

// add hashes a feature into its bucket; a second hash picks the sign so
// collisions cancel rather than pile up.
func (e *HashingEmbedder) add(vec []float32, feature string) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(e.dim))
	if sum>>63 == 0 {
		vec[bucket]++
	} else {
		vec[bucket]--
	}
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}
