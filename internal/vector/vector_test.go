package vector

import (
	"testing"

	"github.com/rpggio/synapse/internal/embedding"
	"github.com/stretchr/testify/require"
)

func TestBruteForce_EmptyIndexReturnsEmptyNotError(t *testing.T) {
	b := NewBruteForce()
	matches := b.Search(embedding.Vector{1, 0, 0}, 5)
	require.Empty(t, matches)
}

func TestBruteForce_FindsClosestMatch(t *testing.T) {
	b := NewBruteForce()
	b.Upsert("a", embedding.Vector{1, 0, 0})
	b.Upsert("b", embedding.Vector{0, 1, 0})
	b.Upsert("c", embedding.Vector{0.9, 0.1, 0})

	matches := b.Search(embedding.Vector{1, 0, 0}, 2)
	require.Len(t, matches, 2)
	require.Equal(t, "a", matches[0].RecordID)
	require.Equal(t, "c", matches[1].RecordID)
}

func TestBruteForce_DeleteRemovesMatch(t *testing.T) {
	b := NewBruteForce()
	b.Upsert("a", embedding.Vector{1, 0})
	b.Delete("a")
	require.Equal(t, 0, b.Len())
	require.Empty(t, b.Search(embedding.Vector{1, 0}, 1))
}

func heuristicVectors(n int) map[string]embedding.Vector {
	p := embedding.NewHeuristic(16)
	out := map[string]embedding.Vector{}
	words := []string{
		"pipeline", "deploy", "lunch", "coffee", "meeting", "review", "bug",
		"feature", "release", "incident", "rollback", "oncall", "sandwich",
		"standup", "retro", "design", "migration", "outage", "alert", "fix",
	}
	for i := 0; i < n; i++ {
		w := words[i%len(words)]
		v, _ := p.Embed(nil, w+string(rune('a'+i%26)))
		out[w+string(rune('0'+i%10))] = v
	}
	return out
}

func TestHNSW_EmptyIndexReturnsEmptyNotError(t *testing.T) {
	h := New(DefaultConfig())
	require.Empty(t, h.Search(embedding.Vector{1, 0}, 5))
}

func TestHNSW_SingleNodeSearchReturnsItself(t *testing.T) {
	h := New(DefaultConfig())
	v := embedding.Vector{1, 0, 0}
	h.Insert("only", v)

	matches := h.Search(v, 3)
	require.Len(t, matches, 1)
	require.Equal(t, "only", matches[0].RecordID)
}

func TestHNSW_ApproximatesBruteForceTopMatch(t *testing.T) {
	h := New(DefaultConfig())
	b := NewBruteForce()

	p := embedding.NewHeuristic(16)
	ctx := map[int]bool{}
	_ = ctx
	texts := []string{
		"the deployment pipeline failed overnight",
		"lunch order got mixed up again",
		"oncall got paged about the outage",
		"quarterly planning review notes",
		"database migration finished cleanly",
		"coffee machine is broken",
		"incident retro scheduled for friday",
		"rollback completed without issues",
	}
	for i, text := range texts {
		v, err := p.Embed(nil, text)
		require.NoError(t, err)
		id := text
		_ = i
		h.Insert(id, v)
		b.Upsert(id, v)
	}

	query, err := p.Embed(nil, "the deployment pipeline failed overnight")
	require.NoError(t, err)

	bruteTop := b.Search(query, 1)
	hnswTop := h.Search(query, 1)
	require.Len(t, hnswTop, 1)
	require.Equal(t, bruteTop[0].RecordID, hnswTop[0].RecordID)
}

func TestHNSW_DeleteRemovesNode(t *testing.T) {
	h := New(DefaultConfig())
	h.Insert("a", embedding.Vector{1, 0})
	h.Insert("b", embedding.Vector{0, 1})
	h.Delete("a")

	stats := h.Stats()
	require.Equal(t, 1, stats.Nodes)

	matches := h.Search(embedding.Vector{1, 0}, 5)
	for _, m := range matches {
		require.NotEqual(t, "a", m.RecordID)
	}
}

func TestHNSW_StatsReportsNodesAndEdges(t *testing.T) {
	h := New(DefaultConfig())
	for id, v := range heuristicVectors(10) {
		h.Insert(id, v)
	}
	stats := h.Stats()
	require.Equal(t, 10, stats.Nodes)
	require.GreaterOrEqual(t, stats.MaxLayer, 0)
}
