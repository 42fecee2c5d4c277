package consolidation

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/synapse/internal/domain/record"
)

// Pattern is a detected cluster of similar records (spec §4.6).
type Pattern struct {
	ID        string
	Records   []*record.Record
	Outliers  map[string]bool // record ID -> preserved as outlier
	Summary   string
	Frequency int
}

// DetectPatterns groups records whose content token-overlap similarity
// meets threshold into clusters of size >= minSize, the mechanical
// (non-AI) approach from beads' find_duplicates.go generalized from
// pairwise duplicate pairs to full connected clusters via union-find.
func DetectPatterns(records []*record.Record, minSize int, threshold float64) []Pattern {
	if len(records) < minSize {
		return nil
	}

	tokens := make([]map[string]int, len(records))
	for i, r := range records {
		tokens[i] = tokenize(r.Content)
	}

	parent := make([]int, len(records))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			if jaccardSimilarity(tokens[i], tokens[j]) >= threshold {
				union(i, j)
			}
		}
	}

	groups := map[int][]*record.Record{}
	for i, r := range records {
		root := find(i)
		groups[root] = append(groups[root], r)
	}

	var patterns []Pattern
	for _, members := range groups {
		if len(members) < minSize {
			continue
		}
		for _, cluster := range splitByTemporalWindow(members) {
			if len(cluster) < minSize {
				continue
			}
			patterns = append(patterns, buildPattern(cluster))
		}
	}

	sort.Slice(patterns, func(i, j int) bool { return patterns[i].Frequency > patterns[j].Frequency })
	return patterns
}

// splitByTemporalWindow further divides a topically similar cluster into
// sub-clusters separated in time: records under 30 days old use a tight
// 7-day window (recent activity clusters closely), older records use a
// wider 30-day window since sparse history naturally spreads out (spec
// §4.6's temporal clustering).
func splitByTemporalWindow(members []*record.Record) [][]*record.Record {
	sorted := make([]*record.Record, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	var groups [][]*record.Record
	current := []*record.Record{sorted[0]}
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		window := windowFor(prev.CreatedAt)
		if sorted[i].CreatedAt.Sub(prev.CreatedAt) > window {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, sorted[i])
	}
	groups = append(groups, current)
	return groups
}

func windowFor(at time.Time) time.Duration {
	if time.Since(at) < 30*24*time.Hour {
		return 7 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// emotionalOutlierDistance is the minimum Euclidean distance in
// pleasure/arousal/dominance space from the cluster's emotional centroid
// above which a record is preserved as an emotional outlier.
const emotionalOutlierDistance = 0.2

func buildPattern(members []*record.Record) Pattern {
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.Before(members[j].CreatedAt) })

	outliers := map[string]bool{}
	outliers[members[0].ID] = true              // earliest
	outliers[members[len(members)-1].ID] = true // latest

	highest := members[0]
	for _, r := range members {
		if r.Importance > highest.Importance {
			highest = r
		}
	}
	outliers[highest.ID] = true

	if centroid, ok := emotionalCentroid(members); ok {
		for _, r := range members {
			if r.Emotion == nil {
				continue
			}
			d := emotionalDistance(*r.Emotion, centroid)
			if d >= emotionalOutlierDistance {
				outliers[r.ID] = true
			}
		}
	}

	return Pattern{
		ID:        uuid.NewString(),
		Records:   members,
		Outliers:  outliers,
		Summary:   summarize(members),
		Frequency: len(members),
	}
}

func emotionalCentroid(members []*record.Record) (record.Emotion, bool) {
	var sum record.Emotion
	n := 0
	for _, r := range members {
		if r.Emotion == nil {
			continue
		}
		sum.Pleasure += r.Emotion.Pleasure
		sum.Arousal += r.Emotion.Arousal
		sum.Dominance += r.Emotion.Dominance
		n++
	}
	if n == 0 {
		return record.Emotion{}, false
	}
	return record.Emotion{
		Pleasure:  sum.Pleasure / float64(n),
		Arousal:   sum.Arousal / float64(n),
		Dominance: sum.Dominance / float64(n),
	}, true
}

func emotionalDistance(a, b record.Emotion) float64 {
	dp := a.Pleasure - b.Pleasure
	da := a.Arousal - b.Arousal
	dd := a.Dominance - b.Dominance
	return record.Emotion{Pleasure: dp, Arousal: da, Dominance: dd}.Intensity()
}

// summarize produces a short human-readable description of a pattern
// cluster's content, used as the deterministic fallback for the
// compressed-tier summary row (not the outlier-facing pattern_summary,
// which is templated separately from occurrence counts).
func summarize(members []*record.Record) string {
	counts := map[record.Type]int{}
	for _, r := range members {
		counts[r.Type]++
	}
	dominant := members[0].Type
	best := 0
	for t, n := range counts {
		if n > best {
			best = n
			dominant = t
		}
	}
	span := members[len(members)-1].CreatedAt.Sub(members[0].CreatedAt)
	return fmt.Sprintf("%d %s records over %s", len(members), dominant, span.Round(time.Hour))
}
