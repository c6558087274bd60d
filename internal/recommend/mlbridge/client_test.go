// internal/recommend/mlbridge/client_test.go
package mlbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"skillmatch-engine/internal/common/config"
	"skillmatch-engine/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(baseURL string) config.MLEngineConfig {
	return config.MLEngineConfig{
		BaseURL:       baseURL,
		Timeout:       2000,
		MaxJobs:       100,
		MaxCandidates: 100,
		MaxOthers:     50,
		CircuitBreaker: config.BreakerConfig{
			MaxRequests:      1,
			Interval:         60000,
			Timeout:          60000,
			FailureThreshold: 3,
		},
	}
}

func createTestClient(t *testing.T, baseURL string) *Client {
	return NewClient(createTestConfig(baseURL), logger.NewTestLogger(t))
}

func scoreServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

// ==========================
// Ranking Tests
// ==========================

func TestRankJobs_Success(t *testing.T) {
	srv := scoreServer(t, http.StatusOK, `[{"id":1,"score":0.9},{"id":2,"score":0.4}]`, nil)
	defer srv.Close()

	client := createTestClient(t, srv.URL)

	scores, err := client.RankJobs(context.Background(), "profile", UserData{}, []JobPayload{{ID: 1}, {ID: 2}})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, ScoredID{ID: 1, Score: 0.9}, scores[0])
	assert.Equal(t, ScoredID{ID: 2, Score: 0.4}, scores[1])
}

func TestRankJobs_NegativeScoreClamped(t *testing.T) {
	srv := scoreServer(t, http.StatusOK, `[{"id":1,"score":-0.5}]`, nil)
	defer srv.Close()

	client := createTestClient(t, srv.URL)

	scores, err := client.RankJobs(context.Background(), "profile", UserData{}, []JobPayload{{ID: 1}})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Zero(t, scores[0].Score)
}

func TestRankJobs_CapsPayload(t *testing.T) {
	var gotJobs int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rankJobsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotJobs = len(req.Jobs)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := createTestConfig(srv.URL)
	cfg.MaxJobs = 3
	client := NewClient(cfg, logger.NewTestLogger(t))

	jobs := make([]JobPayload, 10)
	_, err := client.RankJobs(context.Background(), "profile", UserData{}, jobs)
	require.NoError(t, err)
	assert.Equal(t, 3, gotJobs)
}

func TestRankCandidates_MalformedResponse(t *testing.T) {
	srv := scoreServer(t, http.StatusOK, `{"not":"a list"}`, nil)
	defer srv.Close()

	client := createTestClient(t, srv.URL)

	_, err := client.RankCandidates(context.Background(), "desc", []ProfilePayload{{ID: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestRankCandidates_MissingScoreField(t *testing.T) {
	srv := scoreServer(t, http.StatusOK, `[{"id":1}]`, nil)
	defer srv.Close()

	client := createTestClient(t, srv.URL)

	_, err := client.RankCandidates(context.Background(), "desc", []ProfilePayload{{ID: 1}})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestRankSimilarUsers_ServerError(t *testing.T) {
	srv := scoreServer(t, http.StatusInternalServerError, `boom`, nil)
	defer srv.Close()

	client := createTestClient(t, srv.URL)

	_, err := client.RankSimilarUsers(context.Background(), "profile", []ProfilePayload{{ID: 1}})
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestRank_EngineDown(t *testing.T) {
	srv := scoreServer(t, http.StatusOK, `[]`, nil)
	srv.Close() // connection refused from here on

	client := createTestClient(t, srv.URL)

	_, err := client.RankJobs(context.Background(), "profile", UserData{}, []JobPayload{{ID: 1}})
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

// ==========================
// Circuit Breaker Tests
// ==========================

func TestRank_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := scoreServer(t, http.StatusInternalServerError, `boom`, &hits)
	defer srv.Close()

	client := createTestClient(t, srv.URL)

	for i := 0; i < 3; i++ {
		_, err := client.RankJobs(context.Background(), "profile", UserData{}, []JobPayload{{ID: 1}})
		assert.ErrorIs(t, err, ErrEngineUnavailable)
	}
	require.EqualValues(t, 3, hits.Load())

	// Breaker is open now: the next call fails without reaching the server
	_, err := client.RankJobs(context.Background(), "profile", UserData{}, []JobPayload{{ID: 1}})
	assert.ErrorIs(t, err, ErrEngineUnavailable)
	assert.EqualValues(t, 3, hits.Load())
}

// ==========================
// Feedback Tests
// ==========================

func TestTrackInteraction_Success(t *testing.T) {
	var got Feedback
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/track/interaction", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := createTestClient(t, srv.URL)

	err := client.TrackInteraction(context.Background(), Feedback{UserID: 7, JobID: 9, Type: "apply"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, int64(9), got.JobID)
	assert.Equal(t, "apply", got.Type)
}

func TestTrackInteraction_ErrorDoesNotTripBreaker(t *testing.T) {
	fail := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/track/interaction" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer fail.Close()

	client := createTestClient(t, fail.URL)

	for i := 0; i < 5; i++ {
		err := client.TrackInteraction(context.Background(), Feedback{UserID: 1, JobID: 2, Type: "view"})
		assert.ErrorIs(t, err, ErrEngineUnavailable)
	}

	// Ranking still goes through: feedback failures never open the breaker
	_, err := client.RankJobs(context.Background(), "profile", UserData{}, []JobPayload{{ID: 1}})
	assert.NoError(t, err)
}
