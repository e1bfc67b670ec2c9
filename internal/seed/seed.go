// Package seed loads jokes from a YAML file into the store. Joke ids are
// derived from the joke text, so loading the same file twice leaves one
// copy of each joke.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/punchlineapp/punchline-server/internal/domain"
	domainerrors "github.com/punchlineapp/punchline-server/internal/errors"
	"github.com/punchlineapp/punchline-server/internal/id"
	"github.com/punchlineapp/punchline-server/internal/store"
)

// DefaultCreator is used when the file names no creator.
const DefaultCreator = "seed"

// File is the YAML layout of a seed file.
type File struct {
	CreatorID    string  `yaml:"creator_id"`
	CreatorEmail string  `yaml:"creator_email"`
	Jokes        []Entry `yaml:"jokes"`
}

// Entry is one joke in a seed file.
type Entry struct {
	Setup     string   `yaml:"setup"`
	Punchline string   `yaml:"punchline"`
	Content   string   `yaml:"content"`
	Audio     string   `yaml:"audio"`
	Scenarios []string `yaml:"scenarios"`
	AgeRange  []string `yaml:"age_range"`
}

// Result counts what Apply did.
type Result struct {
	Created   int
	Unchanged int
}

// Parse decodes and checks a seed file.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	for i, e := range f.Jokes {
		if strings.TrimSpace(e.Setup) == "" || strings.TrimSpace(e.Punchline) == "" {
			return nil, domainerrors.Validationf("joke %d: setup and punchline are required", i+1)
		}
	}
	if f.CreatorID == "" {
		f.CreatorID = DefaultCreator
	}
	return &f, nil
}

// JokeID is the stable id of an entry.
func JokeID(e Entry) string {
	return id.FromName(id.PrefixJoke, strings.TrimSpace(e.Setup)+"\n"+strings.TrimSpace(e.Punchline))
}

// Apply writes every joke in f that is not stored yet.
func Apply(ctx context.Context, st *store.Store, f *File, now time.Time, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var res Result
	for i, e := range f.Jokes {
		jokeID := JokeID(e)

		exists, err := st.Jokes.Exists(ctx, jokeID)
		if err != nil {
			return res, fmt.Errorf("check joke %s: %w", jokeID, err)
		}
		if exists {
			res.Unchanged++
			continue
		}

		joke := &domain.Joke{
			ID:             jokeID,
			Setup:          strings.TrimSpace(e.Setup),
			Punchline:      strings.TrimSpace(e.Punchline),
			Content:        strings.TrimSpace(e.Content),
			DefaultAudioID: strings.TrimSpace(e.Audio),
			Scenarios:      domain.NormalizeTags(e.Scenarios),
			AgeRange:       domain.NormalizeTags(e.AgeRange),
			CreatorID:      f.CreatorID,
			CreatorEmail:   f.CreatorEmail,
			// Spread timestamps so newest-first listing keeps file order.
			CreatedAt: now.Add(-time.Duration(i) * time.Millisecond).UTC(),
		}
		if err := st.Jokes.Put(ctx, joke); err != nil {
			return res, fmt.Errorf("store joke %s: %w", jokeID, err)
		}
		res.Created++
		logger.Debug("seeded joke", "joke_id", jokeID)
	}

	logger.Info("seed applied", "created", res.Created, "unchanged", res.Unchanged)
	return res, nil
}
