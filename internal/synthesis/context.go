package synthesis

import (
	"strings"

	"github.com/rpggio/synapse/internal/domain/record"
)

// avgCharsPerToken approximates token count from content length without
// pulling in a tokenizer dependency, good enough for a soft fill-ratio
// budget rather than an exact accounting (spec §4.5).
const avgCharsPerToken = 4

// ContextItem is one record folded into a turn_context bundle.
type ContextItem struct {
	RecordID    string
	Preview     string
	TopicHint   string
	TokenCost   int
	Importance  float64
	FromFTS     bool
	FromVector  bool
	FromGraph   bool
	FromWorking bool
}

// Bundle is the assembled per-turn context (spec §6's turn_context op):
// a token-budgeted slice of the fused recall, plus a one-line summary.
type Bundle struct {
	Items        []ContextItem
	Summary      string
	TokenBudget  int
	TokensUsed   int
	FillRatio    float64
}

// AssembleContext packs fused results into a token-bounded bundle, taking
// items in descending fused-score order and skipping any item whose
// preview would exceed the remaining budget; later, smaller items can
// still be added.
func AssembleContext(fused []Fused, tokenBudget int) Bundle {
	b := Bundle{TokenBudget: tokenBudget}
	if tokenBudget <= 0 {
		tokenBudget = 1500
		b.TokenBudget = tokenBudget
	}

	for _, f := range fused {
		preview := Preview(f.Record, 160)
		cost := estimateTokens(preview)
		if b.TokensUsed+cost > tokenBudget {
			continue
		}
		item := ContextItem{
			RecordID:   f.Record.ID,
			Preview:    preview,
			TopicHint:  topicHint(f.Record),
			TokenCost:  cost,
			Importance: f.Record.Importance,
		}
		for _, src := range f.Sources {
			switch src {
			case SourceFullText:
				item.FromFTS = true
			case SourceVector:
				item.FromVector = true
			case SourceGraph:
				item.FromGraph = true
			case SourceWorkingSet:
				item.FromWorking = true
			}
		}
		b.Items = append(b.Items, item)
		b.TokensUsed += cost
	}

	b.Summary = summarize(b.Items)
	if tokenBudget > 0 {
		b.FillRatio = float64(b.TokensUsed) / float64(tokenBudget)
	}
	return b
}

// Preview truncates a record's content to maxChars, breaking on a word
// boundary where possible.
func Preview(rec *record.Record, maxChars int) string {
	content := strings.TrimSpace(rec.Content)
	if len(content) <= maxChars {
		return content
	}
	cut := content[:maxChars]
	if idx := strings.LastIndexByte(cut, ' '); idx > maxChars/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func estimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	n := len(s) / avgCharsPerToken
	if n == 0 {
		n = 1
	}
	return n
}

func topicHint(rec *record.Record) string {
	if rec.FormationContext != nil && rec.FormationContext.Question != "" {
		return rec.FormationContext.Question
	}
	return string(rec.Type)
}

func summarize(items []ContextItem) string {
	if len(items) == 0 {
		return "no relevant memory found"
	}
	hints := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, it := range items {
		if seen[it.TopicHint] {
			continue
		}
		seen[it.TopicHint] = true
		hints = append(hints, it.TopicHint)
		if len(hints) >= 3 {
			break
		}
	}
	return "relevant to: " + strings.Join(hints, ", ")
}
