package gemini

import (
	"context"
	"fmt"
	"math"

	"github.com/openmixer/mixer/internal/ai"
)

type vectorSource interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedder implements the similarity oracle on top of Gemini embeddings.
// The reported value is raw cosine similarity; it is not clamped to [0,1].
type Embedder struct {
	source vectorSource
}

func NewEmbedder(source vectorSource) *Embedder {
	return &Embedder{source: source}
}

func (e *Embedder) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := e.source.Embed(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("%w: embed text: %v", ai.ErrOracleUnavailable, err)
	}

	vb, err := e.source.Embed(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("%w: embed text: %v", ai.ErrOracleUnavailable, err)
	}

	if len(va) != len(vb) || len(va) == 0 {
		return 0, fmt.Errorf("%w: embedding dimensions mismatch: %d vs %d", ai.ErrOracleUnavailable, len(va), len(vb))
	}

	return cosine(va, vb), nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
