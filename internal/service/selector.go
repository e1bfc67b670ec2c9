package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/punchlineapp/punchline-server/internal/domain"
	domainerrors "github.com/punchlineapp/punchline-server/internal/errors"
	"github.com/punchlineapp/punchline-server/internal/generate"
	"github.com/punchlineapp/punchline-server/internal/store"
)

// SelectorService picks jokes for a user by tag, leaving out anything the
// user disliked. With a generator attached it tops up short selections with
// newly written jokes.
type SelectorService struct {
	store         *store.Store
	jokes         *JokeService
	generator     generate.Generator
	minCandidates int
	logger        *slog.Logger
}

// SelectorOption configures a SelectorService.
type SelectorOption func(*SelectorService)

// WithGenerator enables generation. When a selection holds fewer than
// minCandidates jokes, new ones are generated, stored through jokes, and
// appended.
func WithGenerator(g generate.Generator, jokes *JokeService, minCandidates int) SelectorOption {
	return func(s *SelectorService) {
		s.generator = g
		s.jokes = jokes
		s.minCandidates = minCandidates
	}
}

// NewSelectorService creates a new selector service.
func NewSelectorService(store *store.Store, logger *slog.Logger, opts ...SelectorOption) *SelectorService {
	s := &SelectorService{store: store, logger: discardIfNil(logger)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectInput narrows a selection. Empty tags match every joke; Limit <= 0
// means no limit.
type SelectInput struct {
	AgeRange string
	Scenario string
	Limit    int
}

// Select returns jokes carrying both tags that userID has not disliked, in
// store order (newest first). No match yields an empty slice.
func (s *SelectorService) Select(ctx context.Context, userID string, in SelectInput) ([]*domain.Joke, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, err := s.store.Jokes.ListTagged(ctx, in.AgeRange, in.Scenario)
	if err != nil {
		return nil, err
	}

	disliked, err := s.store.Interactions.DislikedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	selected := make([]*domain.Joke, 0, len(candidates))
	for _, j := range candidates {
		if _, skip := disliked[j.ID]; skip {
			continue
		}
		if !j.Matches(in.AgeRange, in.Scenario) {
			continue
		}
		selected = append(selected, j)
		if in.Limit > 0 && len(selected) == in.Limit {
			break
		}
	}

	s.logger.Debug("jokes selected",
		"user_id", userID,
		"age_range", in.AgeRange,
		"scenario", in.Scenario,
		"candidates", len(candidates),
		"excluded", len(disliked),
		"selected", len(selected),
	)

	if s.needsTopUp(len(selected), in.Limit) {
		selected = append(selected, s.topUp(ctx, userID, in, len(selected))...)
	}
	return selected, nil
}

func (s *SelectorService) needsTopUp(selected, limit int) bool {
	if s.generator == nil || s.jokes == nil {
		return false
	}
	if limit > 0 && selected >= limit {
		return false
	}
	return selected < s.minCandidates
}

// topUp generates and stores fresh jokes. Failures are logged and yield
// nothing so the caller still gets what was already selected.
func (s *SelectorService) topUp(ctx context.Context, userID string, in SelectInput, have int) []*domain.Joke {
	items, err := s.generate(ctx, userID, in.AgeRange, in.Scenario)
	if err != nil {
		s.logger.Warn("joke generation failed, returning existing selection",
			"user_id", userID,
			"selected", have,
			"error", err,
		)
		return nil
	}

	stored, err := s.jokes.StoreGenerated(ctx, items, in.AgeRange, in.Scenario)
	if err != nil {
		s.logger.Warn("failed to store generated jokes", "user_id", userID, "error", err)
	}
	if in.Limit > 0 && have+len(stored) > in.Limit {
		stored = stored[:in.Limit-have]
	}
	return stored
}

// GenerateInput describes an on-demand generation request.
type GenerateInput struct {
	AgeRange string
	Scenario string
}

// Generate writes new jokes without storing them. A non-empty userID
// steers the style with that user's likes and dislikes.
func (s *SelectorService) Generate(ctx context.Context, userID string, in GenerateInput) ([]generate.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, domainerrors.Upstream(generate.ErrDisabled, "joke generation is not available")
	}

	items, err := s.generate(ctx, userID, in.AgeRange, in.Scenario)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, domainerrors.Upstream(err, "joke generation failed")
	}
	return items, nil
}

func (s *SelectorService) generate(ctx context.Context, userID, ageRange, scenario string) ([]generate.Item, error) {
	req := generate.Request{
		AgeRange: ageRange,
		Scenario: scenario,
		Count:    max(s.minCandidates, generate.DefaultCount),
	}
	if userID != "" {
		var err error
		if req.Liked, err = s.examples(ctx, userID, domain.ReactionLiked); err != nil {
			return nil, err
		}
		if req.Disliked, err = s.examples(ctx, userID, domain.ReactionDisliked); err != nil {
			return nil, err
		}
	}
	return s.generator.Generate(ctx, req)
}

// examples returns the user's most recent jokes with reaction r.
func (s *SelectorService) examples(ctx context.Context, userID string, r domain.Reaction) ([]*domain.Joke, error) {
	items, err := s.store.Interactions.ListByReaction(ctx, userID, r)
	if err != nil {
		return nil, err
	}
	ids := store.JokeIDs(items)
	if len(ids) > 5 {
		ids = ids[:5]
	}
	return s.store.Jokes.GetMany(ctx, ids)
}
