package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/synapse/internal/config"
	"github.com/rpggio/synapse/internal/domain/record"
	"github.com/rpggio/synapse/internal/domain/team"
	"github.com/rpggio/synapse/internal/embedding"
	"github.com/rpggio/synapse/internal/graph"
	"github.com/rpggio/synapse/internal/store"
	"github.com/rpggio/synapse/internal/synthesis"
)

func testService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Config{
		DataRoot: config.DataRootConfig{Path: t.TempDir()},
		Synthesis: config.SynthesisConfig{
			MaxResults:          10,
			SimilarityThreshold: 0.0,
			TokenBudget:         2000,
		},
		Consolidation: config.ConsolidationConfig{
			MaxAgeDays:          30,
			MinPatternSize:      2,
			SimilarityThreshold: 0.3,
			LowImportanceCutoff: 0.3,
			AccessCountCutoff:   2,
			Summarizer:          "heuristic",
		},
	}

	shared, err := store.OpenShared(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { shared.Close() })
	teamRepo := store.NewTeamRepository(shared)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	teamSvc := team.NewService(teamRepo, logger)

	return New(cfg, embedding.NewHeuristic(32), teamSvc, logger)
}

func createReq(owner, content string, isolation record.Isolation) record.CreateRequest {
	return record.CreateRequest{
		OwnerID:    owner,
		Type:       record.TypeObservation,
		Content:    content,
		Importance: 0.5,
		Isolation:  isolation,
	}
}

func TestCreateRecord_PrivateIsolationDeniesOtherReaders(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	rec, err := svc.CreateRecord(ctx, createReq("ci-a", "a private thought", record.IsolationPrivate))
	require.NoError(t, err)

	got, err := svc.Get(ctx, "ci-a", "ci-a", rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Content, got.Content)

	_, err = svc.Get(ctx, "ci-a", "ci-b", rec.ID)
	require.ErrorIs(t, err, record.ErrAccessDenied)
}

func TestCreateRecord_PublicIsolationVisibleToAnyone(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	rec, err := svc.CreateRecord(ctx, createReq("ci-a", "a shared fact", record.IsolationPublic))
	require.NoError(t, err)

	got, err := svc.Get(ctx, "ci-a", "ci-b", rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Content, got.Content)
}

func TestCreateRecord_WritesVectorOverlayWhenEmbeddingAvailable(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	rec, err := svc.CreateRecord(ctx, createReq("ci-a", "the build pipeline flakes", record.IsolationPrivate))
	require.NoError(t, err)
	require.NotEmpty(t, rec.EmbeddingRef)

	matches, err := svc.VectorSearch(ctx, "ci-a", "the build pipeline flakes", 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	require.Equal(t, rec.ID, matches[0].RecordID)
}

func TestTeamVisibility_JoinGrantsReadLeaveRevokesIt(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.TeamCreate(ctx, "platform", "ci-owner")
	require.NoError(t, err)

	req := createReq("ci-owner", "team-scoped knowledge", record.IsolationTeam)
	req.TeamName = "platform"
	rec, err := svc.CreateRecord(ctx, req)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "ci-owner", "ci-member", rec.ID)
	require.ErrorIs(t, err, record.ErrAccessDenied)

	require.NoError(t, svc.TeamJoin(ctx, "platform", "ci-member", "ci-owner"))
	got, err := svc.Get(ctx, "ci-owner", "ci-member", rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Content, got.Content)

	require.NoError(t, svc.TeamLeave(ctx, "platform", "ci-member"))
	_, err = svc.Get(ctx, "ci-owner", "ci-member", rec.ID)
	require.ErrorIs(t, err, record.ErrAccessDenied)
}

func TestTeamDelete_RequiresOwner(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.TeamCreate(ctx, "platform", "ci-owner")
	require.NoError(t, err)

	err = svc.TeamDelete(ctx, "platform", "ci-intruder")
	require.ErrorIs(t, err, team.ErrNotOwner)

	require.NoError(t, svc.TeamDelete(ctx, "platform", "ci-owner"))
}

func TestGraphTraverse_FollowsEdgesWithinDepth(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.CreateRecord(ctx, createReq("ci-a", "root cause found", record.IsolationPrivate))
	require.NoError(t, err)
	b, err := svc.CreateRecord(ctx, createReq("ci-a", "follow-up fix", record.IsolationPrivate))
	require.NoError(t, err)
	c, err := svc.CreateRecord(ctx, createReq("ci-a", "regression test added", record.IsolationPrivate))
	require.NoError(t, err)

	require.NoError(t, svc.GraphAddEdge(ctx, "ci-a", a.ID, b.ID, "causes", "causal", 1.0))
	require.NoError(t, svc.GraphAddEdge(ctx, "ci-a", b.ID, c.ID, "leads_to", "causal", 1.0))

	hits, err := svc.GraphTraverse("ci-a", a.ID, 1)
	require.NoError(t, err)
	ids := hitIDs(hits)
	require.Contains(t, ids, b.ID)
	require.NotContains(t, ids, c.ID)

	hits, err = svc.GraphTraverse("ci-a", a.ID, 2)
	require.NoError(t, err)
	ids = hitIDs(hits)
	require.Contains(t, ids, c.ID)
}

func hitIDs(hits []graph.TraversalHit) []string {
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	return ids
}

func TestGraphCentrality_PersistsScores(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.CreateRecord(ctx, createReq("ci-a", "hub record", record.IsolationPrivate))
	require.NoError(t, err)
	b, err := svc.CreateRecord(ctx, createReq("ci-a", "leaf record", record.IsolationPrivate))
	require.NoError(t, err)
	require.NoError(t, svc.GraphAddEdge(ctx, "ci-a", a.ID, b.ID, "relates_to", "general", 1.0))

	scores, err := svc.GraphCentrality(ctx, "ci-a")
	require.NoError(t, err)
	require.Contains(t, scores, a.ID)

	got, err := svc.Get(ctx, "ci-a", "ci-a", a.ID)
	require.NoError(t, err)
	require.Equal(t, scores[a.ID], got.Centrality)
}

func TestTurnContext_FusesLexicalAndReturnsBundle(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.CreateRecord(ctx, createReq("ci-a", "the deploy pipeline broke overnight", record.IsolationPrivate))
	require.NoError(t, err)
	_, err = svc.CreateRecord(ctx, createReq("ci-a", "lunch was tacos", record.IsolationPrivate))
	require.NoError(t, err)

	bundle, err := svc.TurnContext(ctx, "ci-a", "ci-a", "deploy pipeline", 0)
	require.NoError(t, err)
	require.NotEmpty(t, bundle.Items)

	var found bool
	for _, item := range bundle.Items {
		if strings.Contains(item.Preview, "pipeline") {
			found = true
			require.True(t, item.FromFTS)
			break
		}
	}
	require.True(t, found, "expected the lexically matching record in the bundle")
}

func TestTurnContext_FiltersRecordsTheRequesterCannotRead(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	rec, err := svc.CreateRecord(ctx, createReq("ci-a", "a private pipeline incident", record.IsolationPrivate))
	require.NoError(t, err)

	bundle, err := svc.TurnContext(ctx, "ci-a", "ci-b", "pipeline incident", 0)
	require.NoError(t, err)
	for _, item := range bundle.Items {
		require.NotEqual(t, rec.ID, item.RecordID)
	}
}

func TestArchiveOld_ArchivesForgettableStandaloneRecords(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	req := createReq("ci-a", "a disposable scratch note", record.IsolationPrivate)
	req.Marks = record.Marks{Forgettable: true}
	rec, err := svc.CreateRecord(ctx, req)
	require.NoError(t, err)

	n, err := svc.ArchiveOld(ctx, "ci-a", -1)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	stats, err := svc.RecordStats(ctx, "ci-a")
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Archived)

	got, err := svc.Get(ctx, "ci-a", "ci-a", rec.ID)
	require.NoError(t, err)
	require.True(t, got.Archived)
}

func TestArchiveOld_NeverArchivesImportantlyMarkedRecords(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	req := createReq("ci-a", "a record marked important and forgettable", record.IsolationPrivate)
	req.Marks = record.Marks{Forgettable: true, Important: true}
	rec, err := svc.CreateRecord(ctx, req)
	require.NoError(t, err)

	n, err := svc.ArchiveOld(ctx, "ci-a", -1)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	got, err := svc.Get(ctx, "ci-a", "ci-a", rec.ID)
	require.NoError(t, err)
	require.False(t, got.Archived)
}

func TestRebuildOverlays_RestoresVectorAndGraphState(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.CreateRecord(ctx, createReq("ci-a", "graph seed record", record.IsolationPrivate))
	require.NoError(t, err)
	b, err := svc.CreateRecord(ctx, createReq("ci-a", "graph target record", record.IsolationPrivate))
	require.NoError(t, err)
	require.NoError(t, svc.GraphAddEdge(ctx, "ci-a", a.ID, b.ID, "relates_to", "general", 1.0))

	require.NoError(t, svc.RebuildOverlays("ci-a"))

	hits, err := svc.GraphTraverse("ci-a", a.ID, 1)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	matches, err := svc.VectorSearch(ctx, "ci-a", "graph seed record", 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
}

func TestOwners_ListsDataRootSubdirectories(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.CreateRecord(ctx, createReq("ci-a", "first owner record", record.IsolationPrivate))
	require.NoError(t, err)
	_, err = svc.CreateRecord(ctx, createReq("ci-b", "second owner record", record.IsolationPrivate))
	require.NoError(t, err)

	owners, err := svc.Owners()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"ci-a", "ci-b"}, owners)
}

func TestOwners_MissingDataRootReturnsEmpty(t *testing.T) {
	cfg := config.Config{DataRoot: config.DataRootConfig{Path: t.TempDir() + "/does-not-exist"}}
	svc := New(cfg, embedding.NewHeuristic(32), nil, nil)
	owners, err := svc.Owners()
	require.NoError(t, err)
	require.Empty(t, owners)
}

func TestGraphStronglyConnected_RequiresMutualTies(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.CreateRecord(ctx, createReq("ci-a", "root cause found", record.IsolationPrivate))
	require.NoError(t, err)
	b, err := svc.CreateRecord(ctx, createReq("ci-a", "follow-up fix", record.IsolationPrivate))
	require.NoError(t, err)
	c, err := svc.CreateRecord(ctx, createReq("ci-a", "unrelated aside", record.IsolationPrivate))
	require.NoError(t, err)

	require.NoError(t, svc.GraphAddEdge(ctx, "ci-a", a.ID, b.ID, "relates_to", "general", 1.0))
	require.NoError(t, svc.GraphAddEdge(ctx, "ci-a", b.ID, a.ID, "relates_to", "general", 1.0))
	require.NoError(t, svc.GraphAddEdge(ctx, "ci-a", a.ID, c.ID, "relates_to", "general", 1.0))

	ids, err := svc.GraphStronglyConnected("ci-a", a.ID)
	require.NoError(t, err)
	require.Equal(t, []string{b.ID}, ids)
}

func TestSynthesisRecall_WeightedFusionRespectsThresholdAndWeights(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	stressed, err := svc.CreateRecord(ctx, createReq("ci-a", "deadline bug causing stress", record.IsolationPrivate))
	require.NoError(t, err)
	_, err = svc.CreateRecord(ctx, createReq("ci-a", "a relaxing walk", record.IsolationPrivate))
	require.NoError(t, err)

	results, err := svc.SynthesisRecall(ctx, "ci-a", "ci-a", "stress", synthesis.RecallOptions{
		UseFTS:              true,
		WeightFTS:           1.0,
		SimilarityThreshold: 0.2,
		MaxResults:          5,
		Algorithm:           synthesis.AlgorithmWeighted,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, stressed.ID, results[0].Record.ID)
	require.True(t, results[0].FromFTS)
}

func TestSynthesisRecall_RankFusionAlgorithmIgnoresWeights(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	rec, err := svc.CreateRecord(ctx, createReq("ci-a", "the deploy pipeline broke overnight", record.IsolationPrivate))
	require.NoError(t, err)

	results, err := svc.SynthesisRecall(ctx, "ci-a", "ci-a", "deploy pipeline", synthesis.RecallOptions{
		UseFTS:     true,
		MaxResults: 5,
		Algorithm:  synthesis.AlgorithmRankFusion,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, rec.ID, results[0].Record.ID)
}

func TestSynthesisRecall_DropsRecordsTheRequesterCannotRead(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	rec, err := svc.CreateRecord(ctx, createReq("ci-a", "a private pipeline incident", record.IsolationPrivate))
	require.NoError(t, err)

	results, err := svc.SynthesisRecall(ctx, "ci-a", "ci-b", "pipeline incident", synthesis.RecallOptions{
		UseFTS:     true,
		WeightFTS:  1.0,
		MaxResults: 5,
		Algorithm:  synthesis.AlgorithmWeighted,
	})
	require.NoError(t, err)
	for _, r := range results {
		require.NotEqual(t, rec.ID, r.Record.ID)
	}
}

func TestArchiveOld_ConsolidatesPatternAndPreservesOutlierSummaries(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 12; i++ {
		req := createReq("ci-a", fmt.Sprintf("debugging the flaky build step %d", i), record.IsolationPrivate)
		req.Importance = 0.2
		rec, err := svc.CreateRecord(ctx, req)
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	n, err := svc.ArchiveOld(ctx, "ci-a", 0)
	require.NoError(t, err)
	require.Greater(t, n, 0)

	var outliers []*record.Record
	for _, id := range ids {
		rec, err := svc.Get(ctx, "ci-a", "ci-a", id)
		require.NoError(t, err)
		if rec.Pattern != nil && rec.Pattern.IsOutlier {
			outliers = append(outliers, rec)
		}
	}
	require.NotEmpty(t, outliers)
	for _, rec := range outliers {
		require.False(t, rec.Archived)
		require.Contains(t, rec.Pattern.Summary, "Pattern: 12 occurrences (")
		require.Contains(t, rec.Pattern.Summary, "preserved as outliers)")
	}
}
