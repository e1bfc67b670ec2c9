package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/punchlineapp/punchline-server/internal/domain"
	"github.com/punchlineapp/punchline-server/internal/store"
)

// InteractionService runs the favorite and like/dislike state machine. Both
// halves live on one document per (user, joke), so every transition is a
// single atomic write and liked and disliked are mutually exclusive.
type InteractionService struct {
	store  *store.Store
	jokes  *JokeService
	logger *slog.Logger
}

// NewInteractionService creates a new interaction service.
func NewInteractionService(store *store.Store, jokes *JokeService, logger *slog.Logger) *InteractionService {
	return &InteractionService{
		store:  store,
		jokes:  jokes,
		logger: discardIfNil(logger),
	}
}

// AddFavorite favorites jokeID for userID. Favoriting twice reports
// OutcomeAlreadyExists.
func (s *InteractionService) AddFavorite(ctx context.Context, userID, jokeID string) (domain.Outcome, error) {
	if err := s.requireJoke(ctx, jokeID); err != nil {
		return "", err
	}

	var outcome domain.Outcome
	_, err := s.store.Interactions.Mutate(ctx, userID, jokeID, func(in *domain.Interaction) bool {
		outcome = in.Favorite()
		return outcome == domain.OutcomeOK
	})
	if err != nil {
		return "", fmt.Errorf("add favorite: %w", err)
	}

	s.logger.Info("favorite added", "user_id", userID, "joke_id", jokeID, "outcome", outcome)
	return outcome, nil
}

// RemoveFavorite clears the favorite flag. Removing a joke that was not
// favorited, or that no longer exists, still succeeds.
func (s *InteractionService) RemoveFavorite(ctx context.Context, userID, jokeID string) (domain.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var outcome domain.Outcome
	_, err := s.store.Interactions.Mutate(ctx, userID, jokeID, func(in *domain.Interaction) bool {
		outcome = in.Unfavorite()
		return outcome == domain.OutcomeOK
	})
	if err != nil {
		return "", fmt.Errorf("remove favorite: %w", err)
	}

	s.logger.Info("favorite removed", "user_id", userID, "joke_id", jokeID, "outcome", outcome)
	return outcome, nil
}

// Like moves the reaction to liked, replacing a dislike.
func (s *InteractionService) Like(ctx context.Context, userID, jokeID string) (*domain.Interaction, error) {
	return s.react(ctx, userID, jokeID, domain.ReactionLiked)
}

// Dislike moves the reaction to disliked, replacing a like.
func (s *InteractionService) Dislike(ctx context.Context, userID, jokeID string) (*domain.Interaction, error) {
	return s.react(ctx, userID, jokeID, domain.ReactionDisliked)
}

// Clear returns the reaction to neutral. The favorite flag is untouched.
func (s *InteractionService) Clear(ctx context.Context, userID, jokeID string) (*domain.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.mutateReaction(ctx, userID, jokeID, domain.ReactionNone)
}

func (s *InteractionService) react(ctx context.Context, userID, jokeID string, r domain.Reaction) (*domain.Interaction, error) {
	if err := s.requireJoke(ctx, jokeID); err != nil {
		return nil, err
	}
	return s.mutateReaction(ctx, userID, jokeID, r)
}

func (s *InteractionService) mutateReaction(ctx context.Context, userID, jokeID string, r domain.Reaction) (*domain.Interaction, error) {
	var previous domain.Reaction
	in, err := s.store.Interactions.Mutate(ctx, userID, jokeID, func(in *domain.Interaction) bool {
		previous = in.Reaction
		return in.React(r)
	})
	if err != nil {
		return nil, fmt.Errorf("set reaction: %w", err)
	}

	if previous != r {
		s.logger.Info("reaction changed",
			"user_id", userID,
			"joke_id", jokeID,
			"from", reactionLabel(previous),
			"to", reactionLabel(r),
		)
	}
	return in, nil
}

// Favorites returns the user's favorited jokes, most recently favorited
// first.
func (s *InteractionService) Favorites(ctx context.Context, userID string) ([]*domain.Joke, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := s.store.Interactions.ListFavorited(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Jokes.GetMany(ctx, store.JokeIDs(items))
}

// Liked returns the jokes the user currently likes.
func (s *InteractionService) Liked(ctx context.Context, userID string) ([]*domain.Joke, error) {
	return s.byReaction(ctx, userID, domain.ReactionLiked)
}

// Disliked returns the jokes the user currently dislikes.
func (s *InteractionService) Disliked(ctx context.Context, userID string) ([]*domain.Joke, error) {
	return s.byReaction(ctx, userID, domain.ReactionDisliked)
}

func (s *InteractionService) byReaction(ctx context.Context, userID string, r domain.Reaction) ([]*domain.Joke, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := s.store.Interactions.ListByReaction(ctx, userID, r)
	if err != nil {
		return nil, err
	}
	return s.store.Jokes.GetMany(ctx, store.JokeIDs(items))
}

// CreatedJokes returns the jokes in the user's created index. Entries whose
// joke has since been deleted are skipped.
func (s *InteractionService) CreatedJokes(ctx context.Context, userID string) ([]*domain.Joke, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := s.store.Created.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.JokeID
	}
	return s.store.Jokes.GetMany(ctx, ids)
}

// DeleteCreated deletes one of the caller's own jokes.
func (s *InteractionService) DeleteCreated(ctx context.Context, caller *domain.UserIdentity, jokeID string) (domain.Outcome, error) {
	return s.jokes.Delete(ctx, caller, jokeID)
}

// State returns the caller's current interaction with a joke.
func (s *InteractionService) State(ctx context.Context, userID, jokeID string) (*domain.Interaction, error) {
	return s.store.Interactions.Get(ctx, userID, jokeID)
}

func (s *InteractionService) requireJoke(ctx context.Context, jokeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	exists, err := s.store.Jokes.Exists(ctx, jokeID)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrJokeNotFound
	}
	return nil
}

func reactionLabel(r domain.Reaction) string {
	if r == domain.ReactionNone {
		return "neutral"
	}
	return string(r)
}
