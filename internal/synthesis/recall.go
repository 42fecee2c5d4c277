package synthesis

import "github.com/rpggio/synapse/internal/domain/record"

// FilterVisible drops fused results the requester may not read, applying
// spec §4.1's check_read policy before anything is surfaced to a caller.
// Synthesis never returns a record the access-control layer would deny a
// direct read of.
func FilterVisible(fused []Fused, requester string, teams record.TeamMembership) []Fused {
	out := fused[:0]
	for _, f := range fused {
		if record.CheckRead(requester, f.Record, teams) {
			out = append(out, f)
		}
	}
	return out
}

// ApplyThreshold drops results scoring below minScore, then caps the
// remainder to maxResults, the tie-break/cap stage of recall (spec §4.5).
func ApplyThreshold(fused []Fused, minScore float64, maxResults int) []Fused {
	var out []Fused
	for _, f := range fused {
		if f.Score < minScore {
			continue
		}
		out = append(out, f)
	}
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// Algorithm selects which fusion strategy a synthesis_recall call uses.
type Algorithm string

const (
	AlgorithmWeighted   Algorithm = "weighted"
	AlgorithmRankFusion Algorithm = "rank-fusion"
)

// RecallOptions parameterizes synthesis_recall (spec §6): which sources to
// query, per-source weights, how strict the cutoff is, how many results to
// return, and which fusion algorithm runs.
type RecallOptions struct {
	UseFTS     bool
	UseVector  bool
	UseGraph   bool
	UseWorking bool

	WeightFTS     float64
	WeightVector  float64
	WeightGraph   float64
	WeightWorking float64

	SimilarityThreshold float64
	MaxResults          int
	Algorithm           Algorithm
}

func (o RecallOptions) weights() map[Source]float64 {
	m := map[Source]float64{}
	if o.UseFTS {
		m[SourceFullText] = o.WeightFTS
	}
	if o.UseVector {
		m[SourceVector] = o.WeightVector
	}
	if o.UseGraph {
		m[SourceGraph] = o.WeightGraph
	}
	if o.UseWorking {
		m[SourceWorkingSet] = o.WeightWorking
	}
	return m
}

// RecallResult is one fused record surfaced by synthesis_recall, carrying
// which sources contributed to its score.
type RecallResult struct {
	Record      *record.Record
	Score       float64
	FromFTS     bool
	FromVector  bool
	FromGraph   bool
	FromWorking bool
}

// Recall runs the candidate fusion pipeline end to end for synthesis_recall
// (spec §6): fuse with the requested algorithm, drop what the requester
// can't read, apply the threshold/cap, and attach per-source flags to
// whatever survives.
func Recall(bySource map[Source][]Candidate, requester string, teams record.TeamMembership, opts RecallOptions) []RecallResult {
	weights := opts.weights()

	enabled := make(map[Source][]Candidate, len(weights))
	for src := range weights {
		enabled[src] = bySource[src]
	}

	var fused []Fused
	if opts.Algorithm == AlgorithmRankFusion {
		fused = RRFFuse(enabled, 0)
	} else {
		fused = WeightedFuse(enabled, weights, 0)
	}

	fused = FilterVisible(fused, requester, teams)

	threshold := opts.SimilarityThreshold
	if opts.Algorithm != AlgorithmRankFusion {
		var weightSum float64
		for _, w := range weights {
			weightSum += w
		}
		threshold *= weightSum
	}
	fused = ApplyThreshold(fused, threshold, opts.MaxResults)

	out := make([]RecallResult, 0, len(fused))
	for _, f := range fused {
		r := RecallResult{Record: f.Record, Score: f.Score}
		for _, src := range f.Sources {
			switch src {
			case SourceFullText:
				r.FromFTS = true
			case SourceVector:
				r.FromVector = true
			case SourceGraph:
				r.FromGraph = true
			case SourceWorkingSet:
				r.FromWorking = true
			}
		}
		out = append(out, r)
	}
	return out
}
