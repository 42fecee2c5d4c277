// Package synthesis implements the Synthesis Layer (spec §4.5): it fuses
// candidates from the lexical (FTS), semantic (vector), relational
// (graph), and working-set sources into a single ranked recall, and
// assembles the bounded per-turn context bundle.
package synthesis

import (
	"sort"

	"github.com/rpggio/synapse/internal/domain/record"
)

// rrfK is the standard Reciprocal Rank Fusion constant from Cormack et
// al. (2009), grounded on sqvect's recall.go rrfFuse using the same
// constant.
const rrfK = 60

// Source labels which channel a candidate came from.
type Source string

const (
	SourceFullText   Source = "fts"
	SourceVector     Source = "vector"
	SourceGraph      Source = "graph"
	SourceWorkingSet Source = "working_set"
	SourceCompressed Source = "compressed"
)

// Candidate is one source's ranked hit before fusion.
type Candidate struct {
	Record *record.Record
	Score  float64 // source-local score, higher is better
	Source Source
}

// Fused is a record with its fused recall score and contributing sources.
type Fused struct {
	Record  *record.Record
	Score   float64
	Sources []Source
}

type accumulator struct {
	rec     *record.Record
	score   float64
	sources map[Source]bool
}

// WeightedFuse combines candidate lists with explicit per-source weights,
// after per-source min-max normalization so no source's raw scale
// dominates the others.
func WeightedFuse(bySource map[Source][]Candidate, weights map[Source]float64, topK int) []Fused {
	acc := map[string]*accumulator{}

	for source, candidates := range bySource {
		weight := weights[source]
		if weight == 0 || len(candidates) == 0 {
			continue
		}
		normalized := minMaxNormalize(candidates)
		for i, c := range candidates {
			id := c.Record.ID
			contribution := normalized[i] * weight
			if a, ok := acc[id]; ok {
				a.score += contribution
				a.sources[source] = true
			} else {
				acc[id] = &accumulator{rec: c.Record, score: contribution, sources: map[Source]bool{source: true}}
			}
		}
	}

	return rankAndTrim(acc, topK)
}

// RRFFuse combines candidate lists via Reciprocal Rank Fusion: each
// item's rank (0-indexed) within its source list contributes
// 1/(rrfK+rank+1), independent of the source's raw score scale. Grounded
// directly on sqvect's rrfFuse.
func RRFFuse(bySource map[Source][]Candidate, topK int) []Fused {
	acc := map[string]*accumulator{}

	for source, candidates := range bySource {
		ranked := make([]Candidate, len(candidates))
		copy(ranked, candidates)
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

		for rank, c := range ranked {
			contribution := 1.0 / float64(rrfK+rank+1)
			id := c.Record.ID
			if a, ok := acc[id]; ok {
				a.score += contribution
				a.sources[source] = true
			} else {
				acc[id] = &accumulator{rec: c.Record, score: contribution, sources: map[Source]bool{source: true}}
			}
		}
	}

	return rankAndTrim(acc, topK)
}

func rankAndTrim(acc map[string]*accumulator, topK int) []Fused {
	out := make([]Fused, 0, len(acc))
	for _, a := range acc {
		sources := make([]Source, 0, len(a.sources))
		for s := range a.sources {
			sources = append(sources, s)
		}
		sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
		out = append(out, Fused{Record: a.rec, Score: a.score, Sources: sources})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Record.Importance != out[j].Record.Importance {
			return out[i].Record.Importance > out[j].Record.Importance
		}
		return out[i].Record.LastAccessedAt.After(out[j].Record.LastAccessedAt)
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

func minMaxNormalize(candidates []Candidate) []float64 {
	out := make([]float64, len(candidates))
	if len(candidates) == 0 {
		return out
	}
	min, max := candidates[0].Score, candidates[0].Score
	for _, c := range candidates {
		if c.Score < min {
			min = c.Score
		}
		if c.Score > max {
			max = c.Score
		}
	}
	span := max - min
	for i, c := range candidates {
		if span == 0 {
			out[i] = 1.0
			continue
		}
		out[i] = (c.Score - min) / span
	}
	return out
}
