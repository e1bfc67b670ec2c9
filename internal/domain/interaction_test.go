package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInteraction_ReactionTransitions(t *testing.T) {
	tests := []struct {
		name        string
		from        Reaction
		to          Reaction
		wantChanged bool
	}{
		{"neutral like", ReactionNone, ReactionLiked, true},
		{"disliked like", ReactionDisliked, ReactionLiked, true},
		{"liked like", ReactionLiked, ReactionLiked, false},
		{"neutral dislike", ReactionNone, ReactionDisliked, true},
		{"liked dislike", ReactionLiked, ReactionDisliked, true},
		{"disliked dislike", ReactionDisliked, ReactionDisliked, false},
		{"liked clear", ReactionLiked, ReactionNone, true},
		{"neutral clear", ReactionNone, ReactionNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := NewInteraction("user-b", "joke-1")
			i.Reaction = tt.from

			assert.Equal(t, tt.wantChanged, i.React(tt.to))
			assert.Equal(t, tt.to, i.Reaction)
		})
	}
}

func TestInteraction_FavoriteIsIndependentOfReaction(t *testing.T) {
	i := NewInteraction("user-b", "joke-1")
	i.React(ReactionDisliked)

	assert.Equal(t, OutcomeOK, i.Favorite())
	assert.Equal(t, OutcomeAlreadyExists, i.Favorite())
	assert.Equal(t, ReactionDisliked, i.Reaction)

	i.React(ReactionLiked)
	assert.True(t, i.Favorited)
}

func TestInteraction_Unfavorite(t *testing.T) {
	i := NewInteraction("user-b", "joke-1")
	assert.Equal(t, OutcomeNotMember, i.Unfavorite())

	i.Favorite()
	assert.Equal(t, OutcomeOK, i.Unfavorite())
	assert.False(t, i.Favorited)
}

func TestInteraction_Empty(t *testing.T) {
	i := NewInteraction("user-b", "joke-1")
	assert.True(t, i.Empty())

	i.Favorite()
	assert.False(t, i.Empty())

	i.Unfavorite()
	i.React(ReactionLiked)
	assert.False(t, i.Empty())

	i.React(ReactionNone)
	assert.True(t, i.Empty())
}

func TestReactionValid(t *testing.T) {
	assert.True(t, ReactionNone.Valid())
	assert.True(t, ReactionLiked.Valid())
	assert.True(t, ReactionDisliked.Valid())
	assert.False(t, Reaction("meh").Valid())
}

func TestOutcomeSuccess(t *testing.T) {
	assert.True(t, OutcomeOK.Success())
	assert.True(t, OutcomeNotMember.Success())
	assert.False(t, OutcomeAlreadyExists.Success())
	assert.False(t, OutcomeNotOwner.Success())
}

func TestInteraction_Stamp(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	i := NewInteraction("user-b", "joke-1")
	before := *i
	i.Favorite()
	i.Stamp(before, t0)
	assert.Equal(t, t0, i.FavoritedAt)
	assert.True(t, i.ReactedAt.IsZero())

	before = *i
	i.React(ReactionLiked)
	i.Stamp(before, t1)
	assert.Equal(t, t0, i.FavoritedAt, "a reaction must not move the favorite time")
	assert.Equal(t, t1, i.ReactedAt)
	assert.Equal(t, t1, i.UpdatedAt)

	before = *i
	i.Unfavorite()
	i.React(ReactionNone)
	i.Stamp(before, t1.Add(time.Minute))
	assert.True(t, i.FavoritedAt.IsZero())
	assert.True(t, i.ReactedAt.IsZero())
}
