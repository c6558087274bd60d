// internal/recommend/mlbridge/client.go

// Package mlbridge is the synchronous client to the external ML scoring
// service. It isolates the ranking cascade from network failure: every
// transport, timeout, or payload problem surfaces as ErrEngineUnavailable,
// which the cascade treats as a stage miss, never as a caller-visible error.
package mlbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"skillmatch-engine/internal/common/config"
	"skillmatch-engine/internal/common/logger"
	"skillmatch-engine/internal/common/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/xeipuuv/gojsonschema"
)

const (
	endpointJobs         = "/recommend/jobs"
	endpointCandidates   = "/recommend/candidates"
	endpointSimilarUsers = "/recommend/similar-users"
	endpointInteraction  = "/track/interaction"

	maxResponseBytes = 1 << 20
)

var (
	ErrEngineUnavailable = errors.New("ML_ENGINE_UNAVAILABLE")
	ErrMalformedResponse = errors.New("ML_RESPONSE_MALFORMED")
)

// scoreListSchema rejects malformed score lists before they reach the
// cascade. Ids arrive as JSON numbers; scores may be any finite number and
// are clamped non-negative after decoding.
const scoreListSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "score"],
		"properties": {
			"id": {"type": "number"},
			"score": {"type": "number"}
		}
	}
}`

// Client talks to the ML engine over HTTP with a bounded payload, a
// request timeout, and a circuit breaker shared across ranking endpoints.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker[[]ScoredID]
	schema        *gojsonschema.Schema
	logger        logger.Logger
	maxJobs       int
	maxCandidates int
	maxOthers     int
}

// NewClient builds a bridge client from the ML engine config section.
func NewClient(cfg config.MLEngineConfig, log logger.Logger) *Client {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(scoreListSchema))
	if err != nil {
		// The schema is a compile-time constant; failing to parse it is a bug.
		panic(fmt.Sprintf("mlbridge: invalid score list schema: %v", err))
	}

	settings := gobreaker.Settings{
		Name:        "ml-engine",
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    config.GetDuration(cfg.CircuitBreaker.Interval),
		Timeout:     config.GetDuration(cfg.CircuitBreaker.Timeout),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CircuitBreaker.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				metrics.MLBreakerOpen.Set(1)
			} else {
				metrics.MLBreakerOpen.Set(0)
			}
			log.Warn("ml engine breaker state change", map[string]interface{}{
				"from": from.String(),
				"to":   to.String(),
			})
		},
	}

	return &Client{
		baseURL:       cfg.BaseURL,
		httpClient:    &http.Client{Timeout: config.GetDuration(cfg.Timeout)},
		breaker:       gobreaker.NewCircuitBreaker[[]ScoredID](settings),
		schema:        schema,
		logger:        log.WithFields(map[string]interface{}{"component": "mlbridge"}),
		maxJobs:       cfg.MaxJobs,
		maxCandidates: cfg.MaxCandidates,
		maxOthers:     cfg.MaxOthers,
	}
}

// RankJobs scores jobs for a user. The job list is capped to bound latency.
func (c *Client) RankJobs(ctx context.Context, userProfile string, user UserData, jobs []JobPayload) ([]ScoredID, error) {
	if len(jobs) > c.maxJobs {
		jobs = jobs[:c.maxJobs]
	}
	return c.rank(ctx, endpointJobs, rankJobsRequest{
		UserProfile: userProfile,
		UserData:    user,
		Jobs:        jobs,
	})
}

// RankCandidates scores candidate profiles against a job description.
func (c *Client) RankCandidates(ctx context.Context, jobDescription string, candidates []ProfilePayload) ([]ScoredID, error) {
	if len(candidates) > c.maxCandidates {
		candidates = candidates[:c.maxCandidates]
	}
	return c.rank(ctx, endpointCandidates, rankCandidatesRequest{
		JobDescription: jobDescription,
		Candidates:     candidates,
	})
}

// RankSimilarUsers scores other users by profile similarity.
func (c *Client) RankSimilarUsers(ctx context.Context, userProfile string, others []ProfilePayload) ([]ScoredID, error) {
	if len(others) > c.maxOthers {
		others = others[:c.maxOthers]
	}
	return c.rank(ctx, endpointSimilarUsers, rankSimilarUsersRequest{
		UserProfile: userProfile,
		Others:      others,
	})
}

// TrackInteraction pushes training feedback. Best-effort: the caller is
// expected to swallow the error, and the call does not count against the
// ranking breaker.
func (c *Client) TrackInteraction(ctx context.Context, fb Feedback) error {
	body, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointInteraction, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build feedback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.MLRequestDuration.WithLabelValues(endpointInteraction).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MLRequests.WithLabelValues(endpointInteraction, "error").Inc()
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.MLRequests.WithLabelValues(endpointInteraction, "error").Inc()
		return fmt.Errorf("%w: feedback endpoint returned %s", ErrEngineUnavailable, resp.Status)
	}

	metrics.MLRequests.WithLabelValues(endpointInteraction, "ok").Inc()
	return nil
}

// rank runs one scoring call through the circuit breaker. Any failure is
// logged at warn and wrapped in ErrEngineUnavailable.
func (c *Client) rank(ctx context.Context, endpoint string, body interface{}) ([]ScoredID, error) {
	scores, err := c.breaker.Execute(func() ([]ScoredID, error) {
		return c.post(ctx, endpoint, body)
	})
	if err != nil {
		metrics.MLRequests.WithLabelValues(endpoint, "error").Inc()
		c.logger.Warn("ml engine call failed", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		if errors.Is(err, ErrEngineUnavailable) || errors.Is(err, ErrMalformedResponse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	metrics.MLRequests.WithLabelValues(endpoint, "ok").Inc()
	return scores, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body interface{}) ([]ScoredID, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.MLRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrEngineUnavailable, endpoint, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrEngineUnavailable, err)
	}

	return c.decodeScores(data)
}

// decodeScores validates the raw body against the score list schema, then
// decodes it. Negative scores from a misbehaving model are clamped to zero
// rather than propagated.
func (c *Client) decodeScores(data []byte) ([]ScoredID, error) {
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		descs := make([]string, 0, len(result.Errors()))
		for _, d := range result.Errors() {
			descs = append(descs, d.String())
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, descs)
	}

	var wire []struct {
		ID    float64 `json:"id"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	scores := make([]ScoredID, 0, len(wire))
	for _, w := range wire {
		score := w.Score
		if score < 0 {
			score = 0
		}
		scores = append(scores, ScoredID{ID: int64(w.ID), Score: score})
	}
	return scores, nil
}
