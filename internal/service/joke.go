package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/punchlineapp/punchline-server/internal/audio"
	"github.com/punchlineapp/punchline-server/internal/domain"
	domainerrors "github.com/punchlineapp/punchline-server/internal/errors"
	"github.com/punchlineapp/punchline-server/internal/generate"
	"github.com/punchlineapp/punchline-server/internal/id"
	"github.com/punchlineapp/punchline-server/internal/store"
)

// CreateJokeInput carries the caller-supplied joke fields.
type CreateJokeInput struct {
	Setup          string
	Punchline      string
	Content        string
	DefaultAudioID string
	Scenarios      []string
	AgeRange       []string
}

// JokeService creates, lists and deletes jokes and keeps each creator's
// created-jokes index in step.
type JokeService struct {
	store  *store.Store
	audio  audio.Resolver
	logger *slog.Logger
	now    Clock
}

// NewJokeService creates a new joke service.
func NewJokeService(store *store.Store, resolver audio.Resolver, logger *slog.Logger) *JokeService {
	if resolver == nil {
		resolver = audio.PassthroughResolver{}
	}
	return &JokeService{
		store:  store,
		audio:  resolver,
		logger: discardIfNil(logger),
		now:    time.Now,
	}
}

// SetClock overrides the creation timestamp source.
func (s *JokeService) SetClock(now Clock) {
	s.now = now
}

// Create stores a joke authored by caller and indexes it under the caller's
// created jokes.
func (s *JokeService) Create(ctx context.Context, caller *domain.UserIdentity, in CreateJokeInput) (*domain.Joke, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if caller == nil || caller.UserID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}

	setup := strings.TrimSpace(in.Setup)
	punchline := strings.TrimSpace(in.Punchline)
	if setup == "" || punchline == "" {
		details := map[string]string{}
		if setup == "" {
			details["joke_setup"] = "is required"
		}
		if punchline == "" {
			details["joke_punchline"] = "is required"
		}
		return nil, domainerrors.ValidationWithDetails("joke setup and punchline are required", details)
	}

	jokeID, err := id.Generate(id.PrefixJoke)
	if err != nil {
		return nil, fmt.Errorf("generate joke ID: %w", err)
	}

	joke := &domain.Joke{
		ID:                jokeID,
		Setup:             setup,
		Punchline:         punchline,
		Content:           strings.TrimSpace(in.Content),
		DefaultAudioID:    strings.TrimSpace(in.DefaultAudioID),
		Scenarios:         domain.NormalizeTags(in.Scenarios),
		AgeRange:          domain.NormalizeTags(in.AgeRange),
		CreatedByCustomer: true,
		CreatorID:         caller.UserID,
		CreatorEmail:      caller.Email,
		CreatedAt:         s.now().UTC(),
	}

	if err := s.store.Jokes.Create(ctx, joke); err != nil {
		return nil, fmt.Errorf("create joke: %w", err)
	}

	entry := &domain.CreatedJoke{UserID: caller.UserID, JokeID: jokeID, CreatedAt: joke.CreatedAt}
	if err := s.store.Created.Add(ctx, entry); err != nil {
		// Without the index entry the joke would be invisible in the
		// creator's list, so undo the create.
		if delErr := s.store.Jokes.Delete(context.WithoutCancel(ctx), jokeID); delErr != nil {
			s.logger.Error("failed to roll back joke after index error",
				"joke_id", jokeID,
				"error", delErr,
			)
		}
		return nil, fmt.Errorf("index created joke: %w", err)
	}

	s.logger.Info("joke created",
		"joke_id", jokeID,
		"creator_id", caller.UserID,
		"scenarios", joke.Scenarios,
		"age_range", joke.AgeRange,
	)

	return joke, nil
}

// GeneratedCreatorID is the creator recorded on jokes written by the
// generator. Such jokes have no created-jokes index entry.
const GeneratedCreatorID = "generator"

// StoreGenerated saves generated jokes tagged with ageRange and scenario.
// Items that fail to save are logged and skipped.
func (s *JokeService) StoreGenerated(ctx context.Context, items []generate.Item, ageRange, scenario string) ([]*domain.Joke, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tags := func(tag string) []string {
		if tag == "" {
			return []string{}
		}
		return domain.NormalizeTags([]string{tag})
	}

	stored := make([]*domain.Joke, 0, len(items))
	for _, it := range items {
		jokeID, err := id.Generate(id.PrefixJoke)
		if err != nil {
			return stored, fmt.Errorf("generate joke ID: %w", err)
		}
		joke := &domain.Joke{
			ID:        jokeID,
			Setup:     it.Setup,
			Punchline: it.Punchline,
			Content:   it.Content,
			Scenarios: tags(scenario),
			AgeRange:  tags(ageRange),
			CreatorID: GeneratedCreatorID,
			CreatedAt: s.now().UTC(),
		}
		if err := s.store.Jokes.Create(ctx, joke); err != nil {
			s.logger.Warn("failed to store generated joke", "joke_id", jokeID, "error", err)
			continue
		}
		stored = append(stored, joke)
	}

	s.logger.Info("generated jokes stored",
		"stored", len(stored),
		"generated", len(items),
		"scenario", scenario,
		"age_range", ageRange,
	)
	return stored, nil
}

// List returns every joke, newest first.
func (s *JokeService) List(ctx context.Context) ([]*domain.Joke, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Jokes.List(ctx)
}

// ListByCreator returns the jokes authored by userID.
func (s *JokeService) ListByCreator(ctx context.Context, userID string) ([]*domain.Joke, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Jokes.ListByCreator(ctx, userID)
}

// Get retrieves a joke by ID.
func (s *JokeService) Get(ctx context.Context, jokeID string) (*domain.Joke, error) {
	return s.store.Jokes.Get(ctx, jokeID)
}

// AudioReference returns the joke's default audio reference. A joke without
// audio yields "" and no error.
func (s *JokeService) AudioReference(ctx context.Context, jokeID string) (string, error) {
	joke, err := s.store.Jokes.Get(ctx, jokeID)
	if err != nil {
		return "", err
	}
	return joke.DefaultAudioID, nil
}

// AudioURL resolves the joke's audio reference to a fetchable URL.
func (s *JokeService) AudioURL(ctx context.Context, jokeID string) (string, error) {
	ref, err := s.AudioReference(ctx, jokeID)
	if err != nil {
		return "", err
	}
	if ref == "" {
		return "", domainerrors.NotFound("joke has no audio")
	}
	url, err := s.audio.URL(ctx, ref)
	if err != nil {
		return "", domainerrors.Upstream(err, "failed to resolve audio url")
	}
	return url, nil
}

// Delete removes jokeID if caller created it. A caller who is not the
// creator gets OutcomeNotOwner and the joke is left in place.
func (s *JokeService) Delete(ctx context.Context, caller *domain.UserIdentity, jokeID string) (domain.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	joke, err := s.store.Jokes.Get(ctx, jokeID)
	if err != nil {
		return "", err
	}

	if caller == nil || !joke.OwnedBy(caller.UserID) {
		s.logger.Warn("joke delete refused: not the creator",
			"joke_id", jokeID,
			"creator_id", joke.CreatorID,
		)
		return domain.OutcomeNotOwner, nil
	}

	if err := s.store.Jokes.Delete(ctx, jokeID); err != nil {
		return "", fmt.Errorf("delete joke: %w", err)
	}
	if err := s.store.Created.Remove(ctx, caller.UserID, jokeID); err != nil {
		// The joke itself is gone; a stale entry is skipped when listing.
		s.logger.Warn("failed to remove created index entry",
			"joke_id", jokeID,
			"user_id", caller.UserID,
			"error", err,
		)
	}

	s.logger.Info("joke deleted", "joke_id", jokeID, "user_id", caller.UserID)
	return domain.OutcomeOK, nil
}

// IsNotFound reports whether err means the joke does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, domainerrors.ErrNotFound)
}
