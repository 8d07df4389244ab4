package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/vote-score/internal/adapter/storage"
	"github.com/rl1809/vote-score/internal/core/domain"
	"github.com/rl1809/vote-score/internal/core/service"
	"github.com/rl1809/vote-score/internal/metrics"
)

type failingCounter struct{}

func (failingCounter) Add(context.Context, domain.Direction) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingCounter) Get(context.Context) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingCounter) Tally(context.Context) (domain.Tally, error) {
	return domain.Tally{}, errors.New("connection refused")
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	svc := service.NewScoreService(storage.NewMemoryCounter(), 0, metrics.New(reg))
	h := NewHTTPHandler(svc, zap.NewNop().Sugar())

	srv := httptest.NewServer(h.Routes(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	t.Cleanup(srv.Close)
	return srv
}

func doScore(t *testing.T, srv *httptest.Server, method, path string) int64 {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1, "score response must only carry the score key")

	score, ok := body["score"]
	require.True(t, ok)
	return score
}

func TestHTTP_FreshScoreIsZero(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, int64(0), doScore(t, srv, http.MethodGet, "/score"))
}

func TestHTTP_UpvoteTwiceThenRead(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, int64(1), doScore(t, srv, http.MethodPost, "/upvote"))
	assert.Equal(t, int64(2), doScore(t, srv, http.MethodPost, "/upvote"))
	assert.Equal(t, int64(2), doScore(t, srv, http.MethodGet, "/score"))
}

func TestHTTP_DownvoteFromZero(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, int64(-1), doScore(t, srv, http.MethodPost, "/downvote"))
}

func TestHTTP_MixedSequence(t *testing.T) {
	srv := newTestServer(t)

	doScore(t, srv, http.MethodPost, "/upvote")
	doScore(t, srv, http.MethodPost, "/upvote")
	doScore(t, srv, http.MethodPost, "/downvote")
	assert.Equal(t, int64(1), doScore(t, srv, http.MethodGet, "/score"))

	resp, err := srv.Client().Get(srv.URL + "/votes")
	require.NoError(t, err)
	defer resp.Body.Close()

	var tally domain.Tally
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tally))
	assert.Equal(t, domain.Tally{Upvotes: 2, Downvotes: 1, Score: 1}, tally)
}

func TestHTTP_ReadIsIdempotent(t *testing.T) {
	srv := newTestServer(t)

	doScore(t, srv, http.MethodPost, "/downvote")
	for i := 0; i < 5; i++ {
		assert.Equal(t, int64(-1), doScore(t, srv, http.MethodGet, "/score"))
	}
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		method, path, allow string
	}{
		{http.MethodGet, "/upvote", http.MethodPost},
		{http.MethodGet, "/downvote", http.MethodPost},
		{http.MethodPost, "/score", http.MethodGet},
		{http.MethodDelete, "/votes", http.MethodGet},
	}
	for _, tc := range cases {
		req, _ := http.NewRequest(tc.method, srv.URL+tc.path, nil)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, "%s %s", tc.method, tc.path)
		assert.Equal(t, tc.allow, resp.Header.Get("Allow"))
	}

	// rejected mutations must not count
	assert.Equal(t, int64(0), doScore(t, srv, http.MethodGet, "/score"))
}

func TestHTTP_ConcurrentVotes(t *testing.T) {
	srv := newTestServer(t)
	ups, downs := 120, 45

	var wg sync.WaitGroup
	for i := 0; i < ups+downs; i++ {
		path := "/upvote"
		if i < downs {
			path = "/downvote"
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := srv.Client().Post(srv.URL+path, "application/json", nil)
			if err != nil {
				t.Errorf("post %s: %v", path, err)
				return
			}
			resp.Body.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(ups-downs), doScore(t, srv, http.MethodGet, "/score"))
}

func TestHTTP_StoreFailure(t *testing.T) {
	svc := service.NewScoreService(failingCounter{}, 0, nil)
	srv := httptest.NewServer(NewHTTPHandler(svc, zap.NewNop().Sugar()).Routes(nil))
	defer srv.Close()

	for _, path := range []string{"/upvote", "/downvote"} {
		resp, err := srv.Client().Post(srv.URL+path, "application/json", nil)
		require.NoError(t, err)

		var body ErrorHTTPResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.NotEmpty(t, body.Error)
	}

	resp, err := srv.Client().Get(srv.URL + "/score")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHTTP_HealthAndCORS(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health HealthHTTPResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.Timestamp)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/upvote", nil)
	pre, err := srv.Client().Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	assert.Equal(t, http.StatusNoContent, pre.StatusCode)

	// preflight is not a vote
	assert.Equal(t, int64(0), doScore(t, srv, http.MethodGet, "/score"))
}

func TestHTTP_RequestIDEchoed(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/score", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestHTTP_Metrics(t *testing.T) {
	srv := newTestServer(t)

	doScore(t, srv, http.MethodPost, "/upvote")
	doScore(t, srv, http.MethodPost, "/downvote")

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := string(b)
	assert.Contains(t, body, `score_votes_total{direction="up"} 1`)
	assert.Contains(t, body, `score_votes_total{direction="down"} 1`)
	assert.Contains(t, body, "score_value 0")
}
