package consolidation

import (
	"time"

	"github.com/rpggio/synapse/internal/domain/record"
)

// Policy configures when a record is eligible for archival (spec §4.6).
type Policy struct {
	MaxAge              time.Duration
	LowImportanceCutoff float64
	AccessCountCutoff   int64
}

// ShouldArchive reports whether a standalone record (outside any detected
// pattern) qualifies for archival: explicitly marked forgettable, or old,
// rarely accessed, and unimportant. Marks.Important always overrides.
func ShouldArchive(r *record.Record, now time.Time, p Policy) bool {
	if r.Marks.Important {
		return false
	}
	if r.Marks.Forgettable {
		return true
	}
	old := now.Sub(r.CreatedAt) >= p.MaxAge
	lowImportance := r.Importance < p.LowImportanceCutoff
	rarelyAccessed := r.AccessCount <= p.AccessCountCutoff
	return old && lowImportance && rarelyAccessed
}

// ArchivalPlan describes what consolidation decided to do with one
// detected pattern: which member records to archive (non-outliers that
// also pass ShouldArchive) and the compressed-tier summary to write.
type ArchivalPlan struct {
	Pattern      Pattern
	ToArchive    []*record.Record
	SourceIDs    []string
	TimeStart    time.Time
	TimeEnd      time.Time
	DominantType record.Type
}

// PlanArchival decides, for one detected pattern, which members to
// archive: non-outlier members that independently qualify under policy.
// Outliers (earliest, latest, most important, emotional standouts) are
// always preserved in the primary tier regardless of policy.
func PlanArchival(p Pattern, now time.Time, policy Policy) ArchivalPlan {
	plan := ArchivalPlan{Pattern: p}
	if len(p.Records) == 0 {
		return plan
	}

	typeCounts := map[record.Type]int{}
	start := p.Records[0].CreatedAt
	end := p.Records[0].CreatedAt

	for _, r := range p.Records {
		plan.SourceIDs = append(plan.SourceIDs, r.ID)
		typeCounts[r.Type]++
		if r.CreatedAt.Before(start) {
			start = r.CreatedAt
		}
		if r.CreatedAt.After(end) {
			end = r.CreatedAt
		}
		if p.Outliers[r.ID] {
			continue
		}
		if ShouldArchive(r, now, policy) {
			plan.ToArchive = append(plan.ToArchive, r)
		}
	}

	plan.TimeStart = start
	plan.TimeEnd = end
	best := 0
	for t, n := range typeCounts {
		if n > best {
			best = n
			plan.DominantType = t
		}
	}
	return plan
}

// AggregatedImportance averages the importance of archived members,
// weighted toward the cluster's highest scorer so a pattern of mostly
// routine notes with one significant insight doesn't get buried.
func AggregatedImportance(members []*record.Record) float64 {
	if len(members) == 0 {
		return 0
	}
	var sum, max float64
	for _, r := range members {
		sum += r.Importance
		if r.Importance > max {
			max = r.Importance
		}
	}
	avg := sum / float64(len(members))
	return (avg + max) / 2
}
