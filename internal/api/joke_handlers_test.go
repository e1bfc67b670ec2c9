package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchlineapp/punchline-server/internal/domain"
	"github.com/punchlineapp/punchline-server/internal/generate"
	"github.com/punchlineapp/punchline-server/internal/service"
)

func (ts *testServer) createJoke(t *testing.T, uid string, body map[string]any) JokeResponse {
	t.Helper()
	resp := ts.api.Post("/api/jokes", ts.bearer(t, uid), body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[JokeResponse](t, resp.Body.Bytes())
}

func chicken() map[string]any {
	return map[string]any{
		"joke_setup":     "Why did the chicken cross the road?",
		"joke_punchline": "To get to the other side!",
		"scenarios":      []string{"bedtime"},
		"age_range":      []string{"5-7"},
	}
}

func TestCreateJoke(t *testing.T) {
	ts := setupTestServer(t)

	joke := ts.createJoke(t, "alice", chicken())
	assert.NotEmpty(t, joke.ID)
	assert.Equal(t, "alice", joke.CreatorID)
	assert.Equal(t, "alice@example.com", joke.CreatorEmail)
	assert.Equal(t, []string{"bedtime"}, joke.Scenarios)
	assert.True(t, joke.CreatedByCustomer)

	resp := ts.api.Get("/api/jokes/" + joke.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, joke.ID, decode[JokeResponse](t, resp.Body.Bytes()).ID)
}

func TestCreateJoke_Unauthenticated(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/jokes", chicken())
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/jokes", "Authorization: Bearer forged", chicken())
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateJoke_AuthCheckedBeforeBody(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/jokes", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/jokes", ts.bearer(t, "alice"), map[string]any{})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	apiErr := decode[APIError](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", apiErr.Code)
	assert.Contains(t, apiErr.Details, "joke_setup")
	assert.Contains(t, apiErr.Details, "joke_punchline")
}

func TestCreateJoke_BlankFields(t *testing.T) {
	ts := setupTestServer(t)

	body := chicken()
	body["joke_punchline"] = "   "
	resp := ts.api.Post("/api/jokes", ts.bearer(t, "alice"), body)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	apiErr := decode[APIError](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", apiErr.Code)
	assert.Equal(t, map[string]any{"joke_punchline": "is required"}, apiErr.Details)
}

func TestListJokes(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/jokes")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[JokeListResponse](t, resp.Body.Bytes()).Jokes)

	joke := ts.createJoke(t, "alice", chicken())

	resp = ts.api.Get("/api/jokes")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[JokeListResponse](t, resp.Body.Bytes())
	require.Len(t, list.Jokes, 1)
	assert.Equal(t, joke.ID, list.Jokes[0].ID)
}

func TestListJokes_ByCreator(t *testing.T) {
	ts := setupTestServer(t)
	mine := ts.createJoke(t, "alice", chicken())
	ts.createJoke(t, "bob", chicken())

	resp := ts.api.Get("/api/jokes?creator_id=alice")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{mine.ID}, ids(decode[JokeListResponse](t, resp.Body.Bytes())))

	resp = ts.api.Get("/api/jokes?creator_id=nobody")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[JokeListResponse](t, resp.Body.Bytes()).Jokes)

	resp = ts.api.Get("/api/jokes")
	assert.Len(t, decode[JokeListResponse](t, resp.Body.Bytes()).Jokes, 2)
}

func TestGetJoke_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/jokes/joke-missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[APIError](t, resp.Body.Bytes()).Code)
}

func TestJokeAudio(t *testing.T) {
	ts := setupTestServer(t)

	withAudio := chicken()
	withAudio["default_audio_id"] = "https://cdn.example/chicken.mp3"
	j1 := ts.createJoke(t, "alice", withAudio)
	j2 := ts.createJoke(t, "alice", chicken())

	resp := ts.api.Get("/api/jokes/" + j1.ID + "/audio")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "https://cdn.example/chicken.mp3", decode[JokeAudioResponse](t, resp.Body.Bytes()).AudioURL)

	resp = ts.api.Get("/api/jokes/" + j2.ID + "/audio")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/jokes/joke-missing/audio")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListJokes_StoreUnavailable(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/api/jokes")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "UPSTREAM", decode[APIError](t, resp.Body.Bytes()).Code)
}

func TestToJokeResponse_NilTags(t *testing.T) {
	resp := toJokeResponse(&domain.Joke{ID: "joke-1"})
	assert.NotNil(t, resp.Scenarios)
	assert.NotNil(t, resp.AgeRange)
}

type cannedGenerator struct {
	last generate.Request
}

func (g *cannedGenerator) Generate(_ context.Context, req generate.Request) ([]generate.Item, error) {
	g.last = req
	return []generate.Item{
		{Setup: "What do you call a sleeping bull?", Punchline: "A bulldozer!"},
		{Setup: "Why did the chicken cross the playground?", Punchline: "To get to the other slide!"},
	}, nil
}

func TestGenerateJokes_Disabled(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/jokes/generate", map[string]any{"age_range": "5-7", "scenario": "bedtime"})
	require.Equal(t, http.StatusServiceUnavailable, resp.Code, resp.Body.String())
	assert.Equal(t, "UPSTREAM", decode[APIError](t, resp.Body.Bytes()).Code)
}

func TestGenerateJokes(t *testing.T) {
	ts := setupTestServer(t)
	gen := &cannedGenerator{}
	ts.server.services.Selector = service.NewSelectorService(ts.store, nil,
		service.WithGenerator(gen, ts.server.services.Jokes, 10))

	liked := ts.createJoke(t, "alice", chicken())
	ts.api.Post("/api/users/bob/like-history/"+liked.ID, ts.bearer(t, "bob"))

	body := map[string]any{"age_range": "5-7", "scenario": "bedtime"}
	resp := ts.api.Post("/api/jokes/generate", ts.bearer(t, "bob"), body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decode[GenerateJokesResponse](t, resp.Body.Bytes())
	require.Len(t, out.Jokes, 2)
	assert.Equal(t, "A bulldozer!", out.Jokes[0].Punchline)
	require.Len(t, gen.last.Liked, 1)
	assert.Equal(t, liked.ID, gen.last.Liked[0].ID)

	// Anonymous callers get jokes without personalization.
	resp = ts.api.Post("/api/jokes/generate", body)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, gen.last.Liked)

	resp = ts.api.Post("/api/jokes/generate", "Authorization: Bearer nope", body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/jokes/generate", map[string]any{"age_range": " ", "scenario": "bedtime"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	// Generated jokes are not stored.
	resp = ts.api.Get("/api/jokes")
	assert.Len(t, decode[JokeListResponse](t, resp.Body.Bytes()).Jokes, 1)
}
