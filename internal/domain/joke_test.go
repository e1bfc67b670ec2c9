package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTag(t *testing.T) {
	tests := map[string]string{
		"bedtime":       "bedtime",
		"Bed Time":      "bed-time",
		"  5-7 ":        "5-7",
		"Café  Jokes!!": "cafe-jokes",
		"---":           "",
		"ROAD_TRIP":     "road-trip",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeTag(in), in)
	}
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"bedtime", "road-trip"}, NormalizeTags([]string{"Bedtime", "", "road trip", "BEDTIME"}))
	assert.NotNil(t, NormalizeTags(nil))
	assert.Empty(t, NormalizeTags(nil))
}

func TestJoke_Matches(t *testing.T) {
	j := &Joke{Scenarios: []string{"bedtime", "road-trip"}, AgeRange: []string{"5-7"}}

	assert.True(t, j.Matches("5-7", "bedtime"))
	assert.True(t, j.Matches("5-7", "Road Trip"))
	assert.True(t, j.Matches("", ""))
	assert.False(t, j.Matches("8-10", "bedtime"))
	assert.False(t, j.Matches("5-7", "school"))
}

func TestJoke_OwnedBy(t *testing.T) {
	j := &Joke{CreatorID: "user-a"}
	assert.True(t, j.OwnedBy("user-a"))
	assert.False(t, j.OwnedBy("user-b"))
	assert.False(t, (&Joke{}).OwnedBy(""))
}

func TestUserIdentity_Is(t *testing.T) {
	u := &UserIdentity{UserID: "user-a"}
	assert.True(t, u.Is("user-a"))
	assert.False(t, u.Is("user-b"))

	var anon *UserIdentity
	assert.False(t, anon.Is("user-a"))
}
