package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/punchlineapp/punchline-server/internal/domain"
	"github.com/punchlineapp/punchline-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	secured := []map[string][]string{{"bearer": {}}}

	huma.Register(s.api, huma.Operation{
		OperationID: "listCreatedJokes",
		Method:      http.MethodGet,
		Path:        "/api/users/{userId}/created-jokes",
		Summary:     "List created jokes",
		Description: "Returns the jokes the user created, newest first",
		Tags:        []string{"Users"},
		Security:    secured,
	}, s.handleListCreatedJokes)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCreatedJoke",
		Method:      http.MethodDelete,
		Path:        "/api/users/{userId}/created-jokes/{jokeId}",
		Summary:     "Delete created joke",
		Description: "Deletes a joke the caller created. Jokes created by someone else are left alone and success is false.",
		Tags:        []string{"Users"},
		Security:    secured,
	}, s.handleDeleteCreatedJoke)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFavorites",
		Method:      http.MethodGet,
		Path:        "/api/users/{userId}/favorites",
		Summary:     "List favorites",
		Tags:        []string{"Favorites"},
		Security:    secured,
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFavorite",
		Method:      http.MethodPost,
		Path:        "/api/users/{userId}/favorites",
		Summary:     "Add favorite",
		Description: "Favorites the joke named in the body. Success is false if it was already a favorite.",
		Tags:        []string{"Favorites"},
		Security:    secured,
	}, s.handleAddFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFavoriteByPath",
		Method:      http.MethodPost,
		Path:        "/api/users/{userId}/favorites/{jokeId}",
		Summary:     "Add favorite by path",
		Tags:        []string{"Favorites"},
		Security:    secured,
	}, s.handleAddFavoriteByPath)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFavorite",
		Method:      http.MethodDelete,
		Path:        "/api/users/{userId}/favorites/{jokeId}",
		Summary:     "Remove favorite",
		Description: "Removes a favorite. Removing a joke that is not a favorite still succeeds.",
		Tags:        []string{"Favorites"},
		Security:    secured,
	}, s.handleRemoveFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "likeJoke",
		Method:      http.MethodPost,
		Path:        "/api/users/{userId}/like-history/{jokeId}",
		Summary:     "Like joke",
		Description: "Marks the joke liked, replacing a dislike",
		Tags:        []string{"Reactions"},
		Security:    secured,
	}, s.handleLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "dislikeJoke",
		Method:      http.MethodPost,
		Path:        "/api/users/{userId}/dislike-history/{jokeId}",
		Summary:     "Dislike joke",
		Description: "Marks the joke disliked, replacing a like",
		Tags:        []string{"Reactions"},
		Security:    secured,
	}, s.handleDislike)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearReaction",
		Method:      http.MethodDelete,
		Path:        "/api/users/{userId}/reactions/{jokeId}",
		Summary:     "Clear reaction",
		Description: "Returns the joke to neither liked nor disliked",
		Tags:        []string{"Reactions"},
		Security:    secured,
	}, s.handleClearReaction)

	huma.Register(s.api, huma.Operation{
		OperationID: "getInteraction",
		Method:      http.MethodGet,
		Path:        "/api/users/{userId}/interactions/{jokeId}",
		Summary:     "Get interaction",
		Description: "Returns whether the user favorited the joke and how they reacted to it",
		Tags:        []string{"Reactions"},
		Security:    secured,
	}, s.handleGetInteraction)

	huma.Register(s.api, huma.Operation{
		OperationID: "listLikedJokes",
		Method:      http.MethodGet,
		Path:        "/api/users/{userId}/liked-jokes",
		Summary:     "List liked jokes",
		Tags:        []string{"Reactions"},
		Security:    secured,
	}, s.handleListLiked)

	huma.Register(s.api, huma.Operation{
		OperationID: "listDislikedJokes",
		Method:      http.MethodGet,
		Path:        "/api/users/{userId}/disliked-jokes",
		Summary:     "List disliked jokes",
		Tags:        []string{"Reactions"},
		Security:    secured,
	}, s.handleListDisliked)

	huma.Register(s.api, huma.Operation{
		OperationID: "selectJokes",
		Method:      http.MethodPost,
		Path:        "/api/users/{userId}/jokes/get",
		Summary:     "Select jokes",
		Description: "Returns jokes matching both tags, without the ones the user disliked. Authentication is optional; when given it must match the user.",
		Tags:        []string{"Jokes"},
	}, s.handleSelectJokes)
}

// === DTOs ===

// UserInput addresses a user's collection.
type UserInput struct {
	Authorization string `header:"Authorization"`
	UserID        string `path:"userId" doc:"User ID"`
}

// UserJokeInput addresses one joke in a user's collection.
type UserJokeInput struct {
	Authorization string `header:"Authorization"`
	UserID        string `path:"userId" doc:"User ID"`
	JokeID        string `path:"jokeId" doc:"Joke ID"`
}

// FavoriteRequest is the body form of add favorite.
type FavoriteRequest struct {
	JokeID string `json:"joke_id" required:"false" validate:"notblank" doc:"Joke ID"`
}

// AddFavoriteInput wraps the add favorite request for Huma.
type AddFavoriteInput struct {
	Authorization string `header:"Authorization"`
	UserID        string `path:"userId" doc:"User ID"`
	Body          FavoriteRequest
}

// ActionResponse reports the result of a state change. Declined changes
// (already a favorite, not the creator) have success false and status 200.
type ActionResponse struct {
	Message string `json:"message" doc:"Status message"`
	Success bool   `json:"success" doc:"Whether the change was applied"`
	JokeID  string `json:"joke_id" doc:"Joke ID"`
	UserID  string `json:"user_id" doc:"User ID"`
}

// ActionOutput wraps an action response for Huma.
type ActionOutput struct {
	Body ActionResponse
}

// SelectJokesRequest is the request body for joke selection.
type SelectJokesRequest struct {
	AgeRange string `json:"age_range" validate:"max=64" doc:"Age range tag, e.g. 5-7"`
	Scenario string `json:"scenario" validate:"max=64" doc:"Scenario tag, e.g. bedtime"`
	Limit    int    `json:"limit,omitempty" validate:"gte=0,lte=500" doc:"Maximum number of jokes; 0 means all"`
}

// SelectJokesInput wraps the selection request for Huma.
type SelectJokesInput struct {
	Authorization string `header:"Authorization"`
	UserID        string `path:"userId" doc:"User ID"`
	Body          SelectJokesRequest
}

// === Handlers ===

func (s *Server) handleListCreatedJokes(ctx context.Context, input *UserInput) (*JokeListOutput, error) {
	if _, err := s.requireSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	jokes, err := s.services.Interactions.CreatedJokes(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return jokeList(jokes), nil
}

func (s *Server) handleDeleteCreatedJoke(ctx context.Context, input *UserJokeInput) (*ActionOutput, error) {
	caller, err := s.requireSelf(ctx, input.Authorization, input.UserID)
	if err != nil {
		return nil, err
	}
	outcome, err := s.services.Interactions.DeleteCreated(ctx, caller, input.JokeID)
	if err != nil {
		return nil, err
	}

	msg := "Joke deleted"
	if outcome == domain.OutcomeNotOwner {
		msg = "You can only delete jokes you created"
	}
	return action(msg, outcome.Success(), input.JokeID, input.UserID), nil
}

func (s *Server) handleListFavorites(ctx context.Context, input *UserInput) (*JokeListOutput, error) {
	if _, err := s.requireSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	jokes, err := s.services.Interactions.Favorites(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return jokeList(jokes), nil
}

func (s *Server) handleAddFavorite(ctx context.Context, input *AddFavoriteInput) (*ActionOutput, error) {
	if _, err := s.requireSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	return s.addFavorite(ctx, input.UserID, input.Body.JokeID)
}

func (s *Server) handleAddFavoriteByPath(ctx context.Context, input *UserJokeInput) (*ActionOutput, error) {
	if _, err := s.requireSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	return s.addFavorite(ctx, input.UserID, input.JokeID)
}

func (s *Server) addFavorite(ctx context.Context, userID, jokeID string) (*ActionOutput, error) {
	outcome, err := s.services.Interactions.AddFavorite(ctx, userID, jokeID)
	if err != nil {
		return nil, err
	}

	msg := "Joke added to favorites"
	if outcome == domain.OutcomeAlreadyExists {
		msg = "Joke is already in favorites"
	}
	return action(msg, outcome.Success(), jokeID, userID), nil
}

func (s *Server) handleRemoveFavorite(ctx context.Context, input *UserJokeInput) (*ActionOutput, error) {
	if _, err := s.requireSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	outcome, err := s.services.Interactions.RemoveFavorite(ctx, input.UserID, input.JokeID)
	if err != nil {
		return nil, err
	}

	msg := "Joke removed from favorites"
	if outcome == domain.OutcomeNotMember {
		msg = "Joke was not in your favorites"
	}
	return action(msg, outcome.Success(), input.JokeID, input.UserID), nil
}

func (s *Server) handleLike(ctx context.Context, input *UserJokeInput) (*ActionOutput, error) {
	if _, err := s.requireSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	if _, err := s.services.Interactions.Like(ctx, input.UserID, input.JokeID); err != nil {
		return nil, err
	}
	return action("Joke added to like history", true, input.JokeID, input.UserID), nil
}

func (s *Server) handleDislike(ctx context.Context, input *UserJokeInput) (*ActionOutput, error) {
	if _, err := s.requireSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	if _, err := s.services.Interactions.Dislike(ctx, input.UserID, input.JokeID); err != nil {
		return nil, err
	}
	return action("Joke added to dislike history", true, input.JokeID, input.UserID), nil
}

func (s *Server) handleClearReaction(ctx context.Context, input *UserJokeInput) (*ActionOutput, error) {
	if _, err := s.requireSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	if _, err := s.services.Interactions.Clear(ctx, input.UserID, input.JokeID); err != nil {
		return nil, err
	}
	return action("Reaction cleared", true, input.JokeID, input.UserID), nil
}

func (s *Server) handleListLiked(ctx context.Context, input *UserInput) (*JokeListOutput, error) {
	if _, err := s.requireSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	jokes, err := s.services.Interactions.Liked(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return jokeList(jokes), nil
}

func (s *Server) handleListDisliked(ctx context.Context, input *UserInput) (*JokeListOutput, error) {
	if _, err := s.requireSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	jokes, err := s.services.Interactions.Disliked(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return jokeList(jokes), nil
}

func (s *Server) handleSelectJokes(ctx context.Context, input *SelectJokesInput) (*JokeListOutput, error) {
	if _, err := s.optionalSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	jokes, err := s.services.Selector.Select(ctx, input.UserID, service.SelectInput{
		AgeRange: input.Body.AgeRange,
		Scenario: input.Body.Scenario,
		Limit:    input.Body.Limit,
	})
	if err != nil {
		return nil, err
	}
	return jokeList(jokes), nil
}

// InteractionResponse is a user's current state for one joke.
type InteractionResponse struct {
	UserID    string `json:"user_id" doc:"User ID"`
	JokeID    string `json:"joke_id" doc:"Joke ID"`
	Favorited bool   `json:"favorited" doc:"Whether the joke is a favorite"`
	Reaction  string `json:"reaction" enum:"liked,disliked,none" doc:"Current reaction"`
}

// InteractionOutput wraps the interaction for Huma.
type InteractionOutput struct {
	Body InteractionResponse
}

func (s *Server) handleGetInteraction(ctx context.Context, input *UserJokeInput) (*InteractionOutput, error) {
	if _, err := s.requireSelf(ctx, input.Authorization, input.UserID); err != nil {
		return nil, err
	}
	in, err := s.services.Interactions.State(ctx, input.UserID, input.JokeID)
	if err != nil {
		return nil, err
	}

	reaction := string(in.Reaction)
	if in.Reaction == domain.ReactionNone {
		reaction = "none"
	}
	return &InteractionOutput{Body: InteractionResponse{
		UserID:    input.UserID,
		JokeID:    input.JokeID,
		Favorited: in.Favorited,
		Reaction:  reaction,
	}}, nil
}

func action(msg string, success bool, jokeID, userID string) *ActionOutput {
	return &ActionOutput{Body: ActionResponse{
		Message: msg,
		Success: success,
		JokeID:  jokeID,
		UserID:  userID,
	}}
}
