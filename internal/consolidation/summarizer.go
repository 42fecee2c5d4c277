package consolidation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"

	"github.com/rpggio/synapse/internal/domain/record"
)

// Summarizer produces the one-line summary stored on an archived pattern's
// compressed-tier row. The deterministic dominant-type/time-span summary
// in pattern.go is always computed and used as a fallback; a Summarizer
// can replace it with a richer description when available.
type Summarizer interface {
	Summarize(ctx context.Context, p Pattern) (string, error)
}

// HeuristicSummarizer wraps the deterministic summary already computed for
// every pattern, so callers can treat "no LLM configured" as just another
// Summarizer rather than a special case.
type HeuristicSummarizer struct{}

// Summarize returns the pattern's already-computed deterministic summary.
func (HeuristicSummarizer) Summarize(_ context.Context, p Pattern) (string, error) {
	return p.Summary, nil
}

// errAPIKeyRequired is returned when an API key is needed but not provided.
var errAPIKeyRequired = errors.New("anthropic api key required")

// AnthropicSummarizer produces a one-sentence natural-language summary of
// an archived pattern cluster via Claude, grounded on beads'
// haikuClient.SummarizeTier1 retry/template flow.
type AnthropicSummarizer struct {
	client   anthropic.Client
	model    anthropic.Model
	tmpl     *template.Template
	maxRetry time.Duration
}

// NewAnthropicSummarizer creates a Claude-backed summarizer. The
// ANTHROPIC_API_KEY environment variable takes precedence over an
// explicit apiKey, matching the teacher's own precedence.
func NewAnthropicSummarizer(apiKey, model string) (*AnthropicSummarizer, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or provide one explicitly", errAPIKeyRequired)
	}
	if model == "" {
		model = "claude-haiku-4-5"
	}
	tmpl, err := template.New("pattern_summary").Parse(patternSummaryPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse pattern summary template: %w", err)
	}
	return &AnthropicSummarizer{
		client:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:    anthropic.Model(model),
		tmpl:     tmpl,
		maxRetry: 30 * time.Second,
	}, nil
}

// Summarize asks Claude for a one-sentence description of a pattern
// cluster's archived content, falling back to a returned error (never a
// panic) on any failure so the caller can fall back to the deterministic
// summary.
func (a *AnthropicSummarizer) Summarize(ctx context.Context, p Pattern) (string, error) {
	prompt, err := a.renderPrompt(p)
	if err != nil {
		return "", fmt.Errorf("render pattern summary prompt: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 200,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	var text string
	op := func() error {
		message, err := a.client.Messages.New(ctx, params)
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(message.Content) == 0 || message.Content[0].Type != "text" {
			return backoff.Permanent(fmt.Errorf("unexpected response format from Claude"))
		}
		text = strings.TrimSpace(message.Content[0].Text)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = a.maxRetry
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return "", fmt.Errorf("summarize pattern via claude: %w", err)
	}
	return text, nil
}

func (a *AnthropicSummarizer) renderPrompt(p Pattern) (string, error) {
	var sb strings.Builder
	data := patternSummaryData{Frequency: p.Frequency}
	for _, r := range p.Records {
		data.Excerpts = append(data.Excerpts, excerpt(r))
	}
	if err := a.tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func excerpt(r *record.Record) string {
	c := strings.TrimSpace(r.Content)
	if len(c) > 200 {
		c = c[:200] + "..."
	}
	return fmt.Sprintf("[%s] %s", r.Type, c)
}

func isRetryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

type patternSummaryData struct {
	Frequency int
	Excerpts  []string
}

const patternSummaryPromptTemplate = `You are compressing a cluster of {{.Frequency}} related memory records into a single archival summary. The output MUST be one concise sentence capturing what this cluster of memories is about.

Records:
{{range .Excerpts}}- {{.}}
{{end}}

Respond with exactly one sentence, no preamble.`
