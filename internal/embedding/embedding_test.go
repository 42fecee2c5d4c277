package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeuristic_DeterministicAndNormalized(t *testing.T) {
	p := NewHeuristic(32)
	ctx := context.Background()

	v1, err := p.Embed(ctx, "the build pipeline flakes")
	require.NoError(t, err)
	v2, err := p.Embed(ctx, "the build pipeline flakes")
	require.NoError(t, err)
	require.Equal(t, v1, v2)
	require.Len(t, v1, 32)

	var norm float64
	for _, x := range v1 {
		norm += x * x
	}
	require.InDelta(t, 1.0, norm, 1e-9)
}

func TestHeuristic_DistinctTextsDiverge(t *testing.T) {
	p := NewHeuristic(32)
	ctx := context.Background()

	v1, _ := p.Embed(ctx, "alpha")
	v2, _ := p.Embed(ctx, "something completely unrelated about lunch")
	require.NotEqual(t, v1, v2)
	require.Less(t, Cosine(v1, v2), 0.99)
}

func TestCosine_IdenticalVectorsScoreOne(t *testing.T) {
	v := Vector{1, 2, 3}
	require.InDelta(t, 1.0, Cosine(v, v), 1e-9)
}

func TestCosine_MismatchedLengthReturnsZero(t *testing.T) {
	require.Equal(t, 0.0, Cosine(Vector{1, 2}, Vector{1, 2, 3}))
}

func TestCosine_ZeroVectorReturnsZero(t *testing.T) {
	require.Equal(t, 0.0, Cosine(Vector{0, 0}, Vector{1, 1}))
}
