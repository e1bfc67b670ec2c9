package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchlineapp/punchline-server/internal/auth"
	"github.com/punchlineapp/punchline-server/internal/docstore/badgerstore"
	"github.com/punchlineapp/punchline-server/internal/ratelimit"
	"github.com/punchlineapp/punchline-server/internal/service"
	"github.com/punchlineapp/punchline-server/internal/store"
)

type testServer struct {
	api      humatest.TestAPI
	server   *Server
	store    *store.Store
	verifier *auth.LocalVerifier
}

// setupTestServer wires the full API over a temp-dir Badger store with the
// local token verifier.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	docs, err := badgerstore.Open(t.TempDir(), nil)
	require.NoError(t, err)
	st := store.New(docs, nil)
	t.Cleanup(func() { _ = st.Close() })

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	verifier, err := auth.NewLocalVerifier(key, time.Hour)
	require.NoError(t, err)

	jokes := service.NewJokeService(st, nil, nil)
	services := &Services{
		Auth:         service.NewAuthService(verifier, nil),
		Jokes:        jokes,
		Interactions: service.NewInteractionService(st, jokes, nil),
		Selector:     service.NewSelectorService(st, nil),
	}

	limiter := ratelimit.PerMinute(1000, 0)
	t.Cleanup(limiter.Stop)

	s := NewServer(st, services, Options{LoginLimiter: limiter, DevTokens: verifier}, nil)

	return &testServer{
		api:      humatest.Wrap(t, s.API()),
		server:   s,
		store:    st,
		verifier: verifier,
	}
}

// bearer returns an Authorization header argument for humatest.
func (ts *testServer) bearer(t *testing.T, uid string) string {
	t.Helper()
	token, _, err := ts.verifier.Issue(uid, uid+"@example.com")
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestRoot(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[RootResponse](t, resp.Body.Bytes())
	assert.Equal(t, "Punchline API is running", body.Message)
	assert.Equal(t, "/docs", body.Docs)
}

func TestStaticPage(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{"/static/", "/static/index.html"} {
		t.Run(path, func(t *testing.T) {
			resp := ts.api.Get(path)
			require.Equal(t, http.StatusOK, resp.Code)
			assert.Contains(t, resp.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, resp.Body.String(), "Punchline API")
		})
	}

	page := ts.api.Get("/static/").Body.String()
	for _, route := range []string{"/favorites/", "/like-history/", "/dislike-history/", "/reactions/", "/jokes/get", "/api/jokes/generate"} {
		assert.Contains(t, page, route)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/openapi.json")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "/api/users/{userId}/jokes/get")
	assert.Contains(t, resp.Body.String(), "/api/jokes/generate")
	assert.Contains(t, resp.Body.String(), "/api/users/{userId}/interactions/{jokeId}")
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Do(http.MethodOptions, "/api/jokes",
		"Origin: https://app.example",
		"Access-Control-Request-Method: POST",
	)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["store"].Status)
}

func TestHealthCheck_StoreClosed(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	health := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "unhealthy", health.Status)
}
