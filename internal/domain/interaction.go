package domain

import "time"

// Reaction is the like/dislike half of a user's interaction with a joke.
type Reaction string

const (
	ReactionNone     Reaction = ""
	ReactionLiked    Reaction = "liked"
	ReactionDisliked Reaction = "disliked"
)

// Valid reports whether r is a known reaction.
func (r Reaction) Valid() bool {
	switch r {
	case ReactionNone, ReactionLiked, ReactionDisliked:
		return true
	default:
		return false
	}
}

// Interaction is the single per-(user, joke) record holding both the
// favorite flag and the reaction. Because both live in one document, every
// transition is one atomic write and a joke can never be liked and disliked
// at the same time.
//
// FavoritedAt and ReactedAt are set when the favorite flag or the reaction
// last became non-empty, so each list orders by its own change and a like
// does not reshuffle favorites.
type Interaction struct {
	UserID      string    `json:"user_id" firestore:"user_id"`
	JokeID      string    `json:"joke_id" firestore:"joke_id"`
	Favorited   bool      `json:"favorited" firestore:"favorited"`
	Reaction    Reaction  `json:"reaction" firestore:"reaction"`
	FavoritedAt time.Time `json:"favorited_at" firestore:"favorited_at"`
	ReactedAt   time.Time `json:"reacted_at" firestore:"reacted_at"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updated_at"`
}

// NewInteraction returns the neutral, unfavorited state.
func NewInteraction(userID, jokeID string) *Interaction {
	return &Interaction{UserID: userID, JokeID: jokeID}
}

// Empty reports whether the interaction carries no state. Empty
// interactions are deleted rather than stored.
func (i *Interaction) Empty() bool {
	return !i.Favorited && i.Reaction == ReactionNone
}

// Favorite sets the favorite flag.
func (i *Interaction) Favorite() Outcome {
	if i.Favorited {
		return OutcomeAlreadyExists
	}
	i.Favorited = true
	return OutcomeOK
}

// Unfavorite clears the favorite flag.
func (i *Interaction) Unfavorite() Outcome {
	if !i.Favorited {
		return OutcomeNotMember
	}
	i.Favorited = false
	return OutcomeOK
}

// React moves the reaction to r. It reports whether anything changed;
// repeating the current reaction is a no-op.
func (i *Interaction) React(r Reaction) bool {
	if i.Reaction == r {
		return false
	}
	i.Reaction = r
	return true
}

// Stamp records now on whichever halves changed since before. Cleared
// halves lose their timestamp.
func (i *Interaction) Stamp(before Interaction, now time.Time) {
	switch {
	case !i.Favorited:
		i.FavoritedAt = time.Time{}
	case !before.Favorited:
		i.FavoritedAt = now
	}
	switch {
	case i.Reaction == ReactionNone:
		i.ReactedAt = time.Time{}
	case i.Reaction != before.Reaction:
		i.ReactedAt = now
	}
	i.UpdatedAt = now
}
