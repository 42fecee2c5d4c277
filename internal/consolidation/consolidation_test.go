package consolidation

import (
	"testing"
	"time"

	"github.com/rpggio/synapse/internal/domain/record"
	"github.com/stretchr/testify/require"
)

func makeRecord(id, content string, at time.Time, importance float64) *record.Record {
	return &record.Record{
		ID:         id,
		OwnerID:    "ci-a",
		Content:    content,
		CreatedAt:  at,
		Type:       record.TypeObservation,
		Importance: importance,
	}
}

func TestJaccardSimilarity_IdenticalTextScoresOne(t *testing.T) {
	a := tokenize("the build pipeline keeps flaking on ci")
	b := tokenize("the build pipeline keeps flaking on ci")
	require.Equal(t, 1.0, jaccardSimilarity(a, b))
}

func TestJaccardSimilarity_DisjointTextScoresZero(t *testing.T) {
	a := tokenize("lunch was sandwiches")
	b := tokenize("database migration finished")
	require.Equal(t, 0.0, jaccardSimilarity(a, b))
}

func TestDetectPatterns_GroupsSimilarRecords(t *testing.T) {
	base := time.Now().Add(-48 * time.Hour)
	records := []*record.Record{
		makeRecord("r1", "the build pipeline keeps flaking on the ci runner", base, 0.3),
		makeRecord("r2", "build pipeline flaking again on ci runner today", base.Add(time.Hour), 0.3),
		makeRecord("r3", "build pipeline flaking on ci runner once more", base.Add(2*time.Hour), 0.3),
		makeRecord("r4", "lunch order got mixed up at the cafe downstairs", base.Add(3*time.Hour), 0.3),
	}

	patterns := DetectPatterns(records, 3, 0.3)
	require.Len(t, patterns, 1)
	require.Equal(t, 3, patterns[0].Frequency)
}

func TestDetectPatterns_BelowMinSizeReturnsNothing(t *testing.T) {
	records := []*record.Record{
		makeRecord("r1", "alpha beta gamma", time.Now(), 0.3),
		makeRecord("r2", "alpha beta gamma", time.Now(), 0.3),
	}
	require.Empty(t, DetectPatterns(records, 3, 0.3))
}

func TestSplitByTemporalWindow_SeparatesDistantClusters(t *testing.T) {
	now := time.Now()
	members := []*record.Record{
		makeRecord("r1", "a", now.Add(-100*24*time.Hour), 0.3),
		makeRecord("r2", "a", now.Add(-99*24*time.Hour), 0.3),
		makeRecord("r3", "a", now, 0.3),
		makeRecord("r4", "a", now.Add(time.Hour), 0.3),
	}
	groups := splitByTemporalWindow(members)
	require.Len(t, groups, 2)
}

func TestBuildPattern_PreservesEarliestLatestAndHighestImportance(t *testing.T) {
	base := time.Now().Add(-10 * time.Hour)
	members := []*record.Record{
		makeRecord("earliest", "a", base, 0.2),
		makeRecord("middle", "a", base.Add(time.Hour), 0.9),
		makeRecord("latest", "a", base.Add(2*time.Hour), 0.2),
	}
	p := buildPattern(members)
	require.True(t, p.Outliers["earliest"])
	require.True(t, p.Outliers["latest"])
	require.True(t, p.Outliers["middle"]) // highest importance
}

func TestBuildPattern_PreservesEmotionalOutlier(t *testing.T) {
	base := time.Now().Add(-10 * time.Hour)
	calm := makeRecord("calm1", "a", base, 0.3)
	calm.Emotion = &record.Emotion{Pleasure: 0.1, Arousal: 0.1, Dominance: 0.1}
	calm2 := makeRecord("calm2", "a", base.Add(time.Hour), 0.3)
	calm2.Emotion = &record.Emotion{Pleasure: 0.1, Arousal: 0.1, Dominance: 0.1}
	intense := makeRecord("intense", "a", base.Add(2*time.Hour), 0.3)
	intense.Emotion = &record.Emotion{Pleasure: -0.9, Arousal: 0.9, Dominance: -0.9}

	p := buildPattern([]*record.Record{calm, calm2, intense})
	require.True(t, p.Outliers["intense"])
}

func TestShouldArchive_ImportantNeverArchived(t *testing.T) {
	r := makeRecord("r1", "a", time.Now().Add(-365*24*time.Hour), 0.0)
	r.Marks.Important = true
	require.False(t, ShouldArchive(r, time.Now(), Policy{MaxAge: 30 * 24 * time.Hour}))
}

func TestShouldArchive_ForgettableAlwaysArchived(t *testing.T) {
	r := makeRecord("r1", "a", time.Now(), 0.9)
	r.Marks.Forgettable = true
	require.True(t, ShouldArchive(r, time.Now(), Policy{MaxAge: 30 * 24 * time.Hour}))
}

func TestShouldArchive_OldLowImportanceRarelyAccessed(t *testing.T) {
	r := makeRecord("r1", "a", time.Now().Add(-60*24*time.Hour), 0.1)
	r.AccessCount = 0
	policy := Policy{MaxAge: 30 * 24 * time.Hour, LowImportanceCutoff: 0.3, AccessCountCutoff: 2}
	require.True(t, ShouldArchive(r, time.Now(), policy))
}

func TestShouldArchive_RecentRecordNotArchived(t *testing.T) {
	r := makeRecord("r1", "a", time.Now(), 0.1)
	policy := Policy{MaxAge: 30 * 24 * time.Hour, LowImportanceCutoff: 0.3, AccessCountCutoff: 2}
	require.False(t, ShouldArchive(r, time.Now(), policy))
}

func TestPlanArchival_SkipsOutliers(t *testing.T) {
	base := time.Now().Add(-60 * 24 * time.Hour)
	members := []*record.Record{
		makeRecord("earliest", "a", base, 0.1),
		makeRecord("middle", "a", base.Add(time.Hour), 0.1),
		makeRecord("latest", "a", base.Add(2*time.Hour), 0.1),
	}
	p := buildPattern(members)
	policy := Policy{MaxAge: 30 * 24 * time.Hour, LowImportanceCutoff: 0.3, AccessCountCutoff: 2}
	plan := PlanArchival(p, time.Now(), policy)

	for _, r := range plan.ToArchive {
		require.False(t, p.Outliers[r.ID])
	}
}

func TestAggregatedImportance_WeightsTowardMax(t *testing.T) {
	members := []*record.Record{
		makeRecord("a", "x", time.Now(), 0.1),
		makeRecord("b", "x", time.Now(), 0.1),
		makeRecord("c", "x", time.Now(), 0.9),
	}
	v := AggregatedImportance(members)
	require.Greater(t, v, 0.1)
	require.Less(t, v, 0.9)
}
