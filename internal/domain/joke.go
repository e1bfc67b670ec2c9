package domain

import (
	"slices"
	"time"
)

// Joke is a setup/punchline pair authored by a user. Jokes are immutable
// once created; the only lifecycle transition is deletion by the creator.
type Joke struct {
	ID                string    `json:"joke_id" firestore:"joke_id"`
	Setup             string    `json:"joke_setup" firestore:"joke_setup"`
	Punchline         string    `json:"joke_punchline" firestore:"joke_punchline"`
	Content           string    `json:"joke_content,omitempty" firestore:"joke_content,omitempty"`
	DefaultAudioID    string    `json:"default_audio_id,omitempty" firestore:"default_audio_id,omitempty"`
	Scenarios         []string  `json:"scenarios" firestore:"scenarios"`
	AgeRange          []string  `json:"age_range" firestore:"age_range"`
	CreatedByCustomer bool      `json:"created_by_customer" firestore:"created_by_customer"`
	CreatorID         string    `json:"creator_id" firestore:"creator_id"`
	CreatorEmail      string    `json:"creator_email" firestore:"creator_email"`
	CreatedAt         time.Time `json:"created_at" firestore:"created_at"`
}

// Field names shared by every store backend.
const (
	FieldCreatorID = "creator_id"
	FieldCreatedAt = "created_at"
	FieldScenarios = "scenarios"
	FieldAgeRange  = "age_range"
	FieldFavorited = "favorited"
	FieldReaction  = "reaction"

	FieldFavoritedAt = "favorited_at"
	FieldReactedAt   = "reacted_at"
)

// OwnedBy reports whether userID authored the joke.
func (j *Joke) OwnedBy(userID string) bool {
	return userID != "" && j.CreatorID == userID
}

// HasAudio reports whether a default audio reference is attached.
func (j *Joke) HasAudio() bool {
	return j.DefaultAudioID != ""
}

// Matches reports whether the joke carries both tags. Empty tags match
// everything. Tags are compared in normalized form.
func (j *Joke) Matches(ageRange, scenario string) bool {
	if ageRange != "" && !slices.Contains(j.AgeRange, NormalizeTag(ageRange)) {
		return false
	}
	if scenario != "" && !slices.Contains(j.Scenarios, NormalizeTag(scenario)) {
		return false
	}
	return true
}

// CreatedJoke is an entry in a user's created-jokes index. Joke.CreatorID is
// the source of truth; the index only makes per-user listing cheap.
type CreatedJoke struct {
	UserID    string    `json:"user_id" firestore:"user_id"`
	JokeID    string    `json:"joke_id" firestore:"joke_id"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}
