package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// httpProvider embeds by calling a remote HTTP service. Grounded on
// beads' dolt storage package's use of cenkalti/backoff for transient
// network failures: an exponential backoff bounded by a max elapsed
// time, permanent errors short-circuiting the retry loop.
type httpProvider struct {
	endpoint  string
	apiKey    string
	dimension int
	timeout   time.Duration
	client    *http.Client
}

// NewHTTP returns an embedding provider backed by a remote HTTP service.
// The request/response shape is a minimal JSON contract: POST {"input":
// text} -> {"embedding": [...]}.
func NewHTTP(endpoint, apiKey string, dimension int, timeout time.Duration) Provider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpProvider{
		endpoint:  endpoint,
		apiKey:    apiKey,
		dimension: dimension,
		timeout:   timeout,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *httpProvider) Dimension() int { return p.dimension }

type embedRequest struct {
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed calls the configured endpoint, retrying transient failures with
// exponential backoff bounded by the provider's timeout (spec §5's
// 30-second hard ceiling on embedding calls).
func (p *httpProvider) Embed(ctx context.Context, text string) (Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var out Vector
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = p.timeout

	err := backoff.Retry(func() error {
		v, err := p.doRequest(ctx, text)
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = v
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, fmt.Errorf("embed via http provider: %w", err)
	}
	return out, nil
}

func (p *httpProvider) doRequest(ctx context.Context, text string) (Vector, error) {
	body, err := json.Marshal(embedRequest{Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("embed provider returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed provider returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	return Vector(parsed.Embedding), nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "returned 5") || strings.Contains(msg, "returned 429") ||
		strings.Contains(msg, "connection") || strings.Contains(msg, "timeout")
}
