package synthesis

import (
	"strings"
	"testing"
	"time"

	"github.com/rpggio/synapse/internal/domain/record"
	"github.com/stretchr/testify/require"
)

func rec(id string, isolation record.Isolation, owner string) *record.Record {
	return &record.Record{
		ID:        id,
		OwnerID:   owner,
		Type:      record.TypeObservation,
		Content:   "content for " + id,
		Isolation: isolation,
		CreatedAt: time.Now(),
	}
}

func TestWeightedFuse_CombinesAcrossSources(t *testing.T) {
	shared := rec("shared", record.IsolationPrivate, "ci-a")
	ftsOnly := rec("fts-only", record.IsolationPrivate, "ci-a")

	bySource := map[Source][]Candidate{
		SourceFullText: {{Record: shared, Score: 0.9}, {Record: ftsOnly, Score: 0.5}},
		SourceVector:   {{Record: shared, Score: 0.8}},
	}
	weights := map[Source]float64{SourceFullText: 0.5, SourceVector: 0.5}

	fused := WeightedFuse(bySource, weights, 10)
	require.Equal(t, "shared", fused[0].Record.ID)
	require.Len(t, fused[0].Sources, 2)
}

func TestWeightedFuse_TiesBreakByImportanceThenLastAccessed(t *testing.T) {
	older := rec("older", record.IsolationPrivate, "ci-a")
	older.Importance = 0.5
	older.LastAccessedAt = time.Now().Add(-time.Hour)

	newer := rec("newer", record.IsolationPrivate, "ci-a")
	newer.Importance = 0.5
	newer.LastAccessedAt = time.Now()

	important := rec("important", record.IsolationPrivate, "ci-a")
	important.Importance = 0.9
	important.LastAccessedAt = time.Now().Add(-24 * time.Hour)

	bySource := map[Source][]Candidate{
		SourceFullText: {
			{Record: older, Score: 1},
			{Record: newer, Score: 1},
			{Record: important, Score: 1},
		},
	}

	fused := WeightedFuse(bySource, map[Source]float64{SourceFullText: 1}, 10)
	require.Equal(t, "important", fused[0].Record.ID)
	require.Equal(t, "newer", fused[1].Record.ID)
	require.Equal(t, "older", fused[2].Record.ID)
}

func TestRRFFuse_RanksByReciprocalRank(t *testing.T) {
	a := rec("a", record.IsolationPrivate, "ci-a")
	b := rec("b", record.IsolationPrivate, "ci-a")

	bySource := map[Source][]Candidate{
		SourceFullText: {{Record: a, Score: 0.9}, {Record: b, Score: 0.1}},
		SourceVector:   {{Record: a, Score: 0.9}, {Record: b, Score: 0.85}},
	}

	fused := RRFFuse(bySource, 10)
	require.Equal(t, "a", fused[0].Record.ID)
	require.Equal(t, "b", fused[1].Record.ID)
}

func TestFilterVisible_DropsPrivateRecordsOfOthers(t *testing.T) {
	mine := rec("mine", record.IsolationPrivate, "ci-a")
	theirs := rec("theirs", record.IsolationPrivate, "ci-b")
	fused := []Fused{{Record: mine, Score: 1}, {Record: theirs, Score: 1}}

	visible := FilterVisible(fused, "ci-a", noTeams{})
	require.Len(t, visible, 1)
	require.Equal(t, "mine", visible[0].Record.ID)
}

type noTeams struct{}

func (noTeams) IsMember(string, string) bool { return false }

func TestApplyThreshold_DropsLowScoresAndCaps(t *testing.T) {
	fused := []Fused{
		{Record: rec("a", record.IsolationPrivate, "ci-a"), Score: 0.9},
		{Record: rec("b", record.IsolationPrivate, "ci-a"), Score: 0.5},
		{Record: rec("c", record.IsolationPrivate, "ci-a"), Score: 0.1},
	}
	out := ApplyThreshold(fused, 0.3, 1)
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].Record.ID)
}

func TestAssembleContext_RespectsTokenBudget(t *testing.T) {
	long := rec("long", record.IsolationPrivate, "ci-a")
	long.Content = strings.Repeat("word ", 2000)
	fused := []Fused{{Record: long, Score: 1}}

	bundle := AssembleContext(fused, 10)
	require.LessOrEqual(t, bundle.TokensUsed, 10)
}

func TestAssembleContext_EmptyFusedYieldsNoMemorySummary(t *testing.T) {
	bundle := AssembleContext(nil, 500)
	require.Equal(t, "no relevant memory found", bundle.Summary)
	require.Zero(t, bundle.TokensUsed)
}

func TestPreview_TruncatesOnWordBoundary(t *testing.T) {
	r := rec("a", record.IsolationPrivate, "ci-a")
	r.Content = strings.Repeat("alpha ", 100)
	p := Preview(r, 30)
	require.LessOrEqual(t, len(p), 34)
	require.True(t, len(p) > 0)
}

