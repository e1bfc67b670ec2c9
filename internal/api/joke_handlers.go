package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/punchlineapp/punchline-server/internal/domain"
	"github.com/punchlineapp/punchline-server/internal/service"
)

func (s *Server) registerJokeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createJoke",
		Method:        http.MethodPost,
		Path:          "/api/jokes",
		Summary:       "Create joke",
		Description:   "Creates a joke authored by the caller",
		Tags:          []string{"Jokes"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateJoke)

	huma.Register(s.api, huma.Operation{
		OperationID: "listJokes",
		Method:      http.MethodGet,
		Path:        "/api/jokes",
		Summary:     "List jokes",
		Description: "Returns every joke, newest first. creator_id narrows the list to one author; creator_id=generator lists generated jokes.",
		Tags:        []string{"Jokes"},
	}, s.handleListJokes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getJoke",
		Method:      http.MethodGet,
		Path:        "/api/jokes/{id}",
		Summary:     "Get joke",
		Tags:        []string{"Jokes"},
	}, s.handleGetJoke)

	huma.Register(s.api, huma.Operation{
		OperationID: "getJokeAudio",
		Method:      http.MethodGet,
		Path:        "/api/jokes/{id}/audio",
		Summary:     "Get joke audio URL",
		Description: "Resolves the joke's default audio to a playable URL",
		Tags:        []string{"Jokes"},
	}, s.handleGetJokeAudio)

	huma.Register(s.api, huma.Operation{
		OperationID: "generateJokes",
		Method:      http.MethodPost,
		Path:        "/api/jokes/generate",
		Summary:     "Generate jokes",
		Description: "Writes new jokes for an age range and scenario without storing them. A bearer token personalizes them with the caller's likes and dislikes.",
		Tags:        []string{"Jokes"},
	}, s.handleGenerateJokes)
}

// === DTOs ===

// JokeResponse is a joke in API responses.
type JokeResponse struct {
	ID                string    `json:"joke_id" doc:"Joke ID"`
	Setup             string    `json:"joke_setup" doc:"Setup line"`
	Punchline         string    `json:"joke_punchline" doc:"Punchline"`
	Content           string    `json:"joke_content" doc:"Optional longer text"`
	DefaultAudioID    string    `json:"default_audio_id" doc:"Opaque audio reference"`
	Scenarios         []string  `json:"scenarios" doc:"Scenario tags"`
	AgeRange          []string  `json:"age_range" doc:"Age range tags"`
	CreatedByCustomer bool      `json:"created_by_customer" doc:"Whether a user wrote the joke"`
	CreatorID         string    `json:"creator_id" doc:"Creator user ID"`
	CreatorEmail      string    `json:"creator_email" doc:"Creator email"`
	CreatedAt         time.Time `json:"created_at" doc:"Creation time"`
}

// JokeListResponse is a list of jokes.
type JokeListResponse struct {
	Jokes []JokeResponse `json:"jokes" doc:"Jokes"`
}

// JokeOutput wraps a joke for Huma.
type JokeOutput struct {
	Body JokeResponse
}

// JokeListOutput wraps a joke list for Huma.
type JokeListOutput struct {
	Body JokeListResponse
}

// CreateJokeRequest is the request body for creating a joke.
type CreateJokeRequest struct {
	Setup          string   `json:"joke_setup" required:"false" validate:"notblank,max=1000" doc:"Setup line"`
	Punchline      string   `json:"joke_punchline" required:"false" validate:"notblank,max=1000" doc:"Punchline"`
	Content        string   `json:"joke_content,omitempty" validate:"max=5000" doc:"Optional longer text"`
	DefaultAudioID string   `json:"default_audio_id,omitempty" validate:"max=1024" doc:"Opaque audio reference"`
	Scenarios      []string `json:"scenarios,omitempty" validate:"max=32,dive,max=64" doc:"Scenario tags"`
	AgeRange       []string `json:"age_range,omitempty" validate:"max=32,dive,max=64" doc:"Age range tags"`
}

// CreateJokeInput wraps the create joke request for Huma.
type CreateJokeInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateJokeRequest
}

// ListJokesInput filters the joke list.
type ListJokesInput struct {
	CreatorID string `query:"creator_id" maxLength:"128" doc:"Only jokes by this creator"`
}

// GetJokeInput contains parameters for getting a joke.
type GetJokeInput struct {
	ID string `path:"id" doc:"Joke ID"`
}

// JokeAudioResponse carries a joke's audio URL.
type JokeAudioResponse struct {
	JokeID   string `json:"joke_id" doc:"Joke ID"`
	AudioURL string `json:"audio_url" doc:"Playable audio URL"`
}

// JokeAudioOutput wraps the audio response for Huma.
type JokeAudioOutput struct {
	Body JokeAudioResponse
}

// GenerateJokesRequest is the request body for generating jokes.
type GenerateJokesRequest struct {
	AgeRange string `json:"age_range" validate:"notblank,max=64" doc:"Age range, e.g. 5-7"`
	Scenario string `json:"scenario" validate:"notblank,max=64" doc:"Scenario, e.g. bedtime"`
}

// GenerateJokesInput wraps the generation request for Huma.
type GenerateJokesInput struct {
	Authorization string `header:"Authorization"`
	Body          GenerateJokesRequest
}

// GeneratedJoke is a joke written by the generator.
type GeneratedJoke struct {
	Setup     string `json:"joke_setup" doc:"Setup line"`
	Punchline string `json:"joke_punchline" doc:"Punchline"`
	Content   string `json:"joke_content" doc:"Optional longer text"`
}

// GenerateJokesResponse lists generated jokes.
type GenerateJokesResponse struct {
	Jokes []GeneratedJoke `json:"jokes" doc:"Generated jokes"`
}

// GenerateJokesOutput wraps the generated jokes for Huma.
type GenerateJokesOutput struct {
	Body GenerateJokesResponse
}

// === Handlers ===

func (s *Server) handleCreateJoke(ctx context.Context, input *CreateJokeInput) (*JokeOutput, error) {
	caller, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	joke, err := s.services.Jokes.Create(ctx, caller, service.CreateJokeInput{
		Setup:          input.Body.Setup,
		Punchline:      input.Body.Punchline,
		Content:        input.Body.Content,
		DefaultAudioID: input.Body.DefaultAudioID,
		Scenarios:      input.Body.Scenarios,
		AgeRange:       input.Body.AgeRange,
	})
	if err != nil {
		return nil, err
	}

	return &JokeOutput{Body: toJokeResponse(joke)}, nil
}

func (s *Server) handleListJokes(ctx context.Context, input *ListJokesInput) (*JokeListOutput, error) {
	var (
		jokes []*domain.Joke
		err   error
	)
	if input.CreatorID != "" {
		jokes, err = s.services.Jokes.ListByCreator(ctx, input.CreatorID)
	} else {
		jokes, err = s.services.Jokes.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	return jokeList(jokes), nil
}

func (s *Server) handleGetJoke(ctx context.Context, input *GetJokeInput) (*JokeOutput, error) {
	joke, err := s.services.Jokes.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &JokeOutput{Body: toJokeResponse(joke)}, nil
}

func (s *Server) handleGetJokeAudio(ctx context.Context, input *GetJokeInput) (*JokeAudioOutput, error) {
	url, err := s.services.Jokes.AudioURL(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &JokeAudioOutput{Body: JokeAudioResponse{JokeID: input.ID, AudioURL: url}}, nil
}

func (s *Server) handleGenerateJokes(ctx context.Context, input *GenerateJokesInput) (*GenerateJokesOutput, error) {
	var userID string
	if input.Authorization != "" {
		caller, err := s.authenticate(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}
		userID = caller.UserID
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	items, err := s.services.Selector.Generate(ctx, userID, service.GenerateInput{
		AgeRange: input.Body.AgeRange,
		Scenario: input.Body.Scenario,
	})
	if err != nil {
		return nil, err
	}

	out := make([]GeneratedJoke, len(items))
	for i, it := range items {
		out[i] = GeneratedJoke{Setup: it.Setup, Punchline: it.Punchline, Content: it.Content}
	}
	return &GenerateJokesOutput{Body: GenerateJokesResponse{Jokes: out}}, nil
}

func toJokeResponse(j *domain.Joke) JokeResponse {
	scenarios, ageRange := j.Scenarios, j.AgeRange
	if scenarios == nil {
		scenarios = []string{}
	}
	if ageRange == nil {
		ageRange = []string{}
	}
	return JokeResponse{
		ID:                j.ID,
		Setup:             j.Setup,
		Punchline:         j.Punchline,
		Content:           j.Content,
		DefaultAudioID:    j.DefaultAudioID,
		Scenarios:         scenarios,
		AgeRange:          ageRange,
		CreatedByCustomer: j.CreatedByCustomer,
		CreatorID:         j.CreatorID,
		CreatorEmail:      j.CreatorEmail,
		CreatedAt:         j.CreatedAt,
	}
}

func jokeList(jokes []*domain.Joke) *JokeListOutput {
	out := make([]JokeResponse, len(jokes))
	for i, j := range jokes {
		out[i] = toJokeResponse(j)
	}
	return &JokeListOutput{Body: JokeListResponse{Jokes: out}}
}
