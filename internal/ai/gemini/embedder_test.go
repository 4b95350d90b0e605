package gemini

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/openmixer/mixer/internal/ai"
)

type stubVectors struct {
	vectors map[string][]float32
	err     error
}

func (s *stubVectors) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func TestSimilarity(t *testing.T) {
	source := &stubVectors{vectors: map[string][]float32{
		"a": {1, 0, 0},
		"b": {1, 0, 0},
		"c": {0, 1, 0},
		"d": {-1, 0, 0},
	}}
	embedder := NewEmbedder(source)

	tests := []struct {
		name string
		x, y string
		want float64
	}{
		{"identical", "a", "b", 1},
		{"orthogonal", "a", "c", 0},
		{"opposite", "a", "d", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := embedder.Similarity(context.Background(), tt.x, tt.y)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("similarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimilarityEmbedError(t *testing.T) {
	embedder := NewEmbedder(&stubVectors{err: errors.New("quota exceeded")})

	_, err := embedder.Similarity(context.Background(), "a", "b")
	if !errors.Is(err, ai.ErrOracleUnavailable) {
		t.Fatalf("error = %v, want ErrOracleUnavailable", err)
	}
}

func TestSimilarityDimensionMismatch(t *testing.T) {
	source := &stubVectors{vectors: map[string][]float32{
		"a": {1, 0},
		"b": {1, 0, 0},
	}}
	embedder := NewEmbedder(source)

	_, err := embedder.Similarity(context.Background(), "a", "b")
	if !errors.Is(err, ai.ErrOracleUnavailable) {
		t.Fatalf("error = %v, want ErrOracleUnavailable", err)
	}
}

func TestCosineZeroVector(t *testing.T) {
	if got := cosine([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("cosine with zero vector = %v, want 0", got)
	}
}
