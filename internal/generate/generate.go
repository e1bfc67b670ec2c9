// Package generate writes new jokes with a hosted language model.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/punchlineapp/punchline-server/internal/domain"
)

// ErrDisabled is returned when no generator is configured.
var ErrDisabled = errors.New("joke generation is not configured")

// maxExamples caps how many liked and disliked jokes go into one prompt.
const maxExamples = 5

// DefaultCount is the number of jokes requested when Request.Count is unset.
const DefaultCount = 10

// Item is one generated joke before it is stored.
type Item struct {
	Setup     string `json:"joke_setup"`
	Punchline string `json:"joke_punchline"`
	Content   string `json:"joke_content"`
}

// Request describes the jokes to write. Liked and Disliked steer the style.
type Request struct {
	AgeRange string
	Scenario string
	Count    int
	Liked    []*domain.Joke
	Disliked []*domain.Joke
}

// Generator produces new jokes.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Item, error)
}

// contentGenerator is satisfied by *genai.Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures a GeminiGenerator.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiGenerator asks a Gemini model for a JSON array of jokes.
type GeminiGenerator struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

var _ Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a Gemini API client.
func NewGeminiGenerator(ctx context.Context, cfg Config, logger *slog.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrDisabled
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGeminiGenerator(client.Models, cfg.Model, cfg.Timeout, logger), nil
}

func newGeminiGenerator(models contentGenerator, model string, timeout time.Duration, logger *slog.Logger) *GeminiGenerator {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GeminiGenerator{models: models, model: model, timeout: timeout, logger: logger}
}

// Generate implements Generator. Entries missing a setup or punchline are
// dropped, and at most req.Count items are returned.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) ([]Item, error) {
	if req.Count <= 0 {
		req.Count = DefaultCount
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(Prompt(req)), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.9),
		ResponseMIMEType: "application/json",
		ResponseSchema:   itemsSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	items, err := Parse(resp.Text())
	if err != nil {
		return nil, err
	}
	if len(items) > req.Count {
		items = items[:req.Count]
	}

	g.logger.Info("jokes generated",
		"model", g.model,
		"age_range", req.AgeRange,
		"scenario", req.Scenario,
		"requested", req.Count,
		"returned", len(items),
		"duration", time.Since(start),
	)
	return items, nil
}

var itemsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"joke_setup":     {Type: genai.TypeString, Description: "The question or statement that sets up the joke"},
			"joke_punchline": {Type: genai.TypeString, Description: "The funny answer or conclusion"},
			"joke_content":   {Type: genai.TypeString, Description: "Optional extra context, may be empty"},
		},
		Required: []string{"joke_setup", "joke_punchline"},
	},
}

// Prompt builds the instruction text for req.
func Prompt(req Request) string {
	count := req.Count
	if count <= 0 {
		count = DefaultCount
	}
	ageRange := req.AgeRange
	if ageRange == "" {
		ageRange = "all ages"
	}
	scenario := req.Scenario
	if scenario == "" {
		scenario = "everyday life"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d jokes that are appropriate for age range %s and scenario %q.\n\n", count, ageRange, scenario)
	b.WriteString("Each joke has a setup (the question or statement that sets up the joke) and a punchline.\n")
	b.WriteString("Respond with a JSON array of objects with the keys \"joke_setup\", \"joke_punchline\" and \"joke_content\" (optional context, may be empty).\n")
	b.WriteString("Keep every joke clean, kind and suitable for the age range.")

	writeExamples(&b, "User's LIKED jokes (write jokes in a similar style and humor)", req.Liked)
	writeExamples(&b, "User's DISLIKED jokes (avoid similar style, topics, or humor)", req.Disliked)
	return b.String()
}

func writeExamples(b *strings.Builder, heading string, jokes []*domain.Joke) {
	if len(jokes) == 0 {
		return
	}
	fmt.Fprintf(b, "\n\n%s:", heading)
	for i, j := range jokes {
		if i == maxExamples {
			break
		}
		fmt.Fprintf(b, "\n- Setup: %q Punchline: %q", j.Setup, j.Punchline)
	}
}

// Parse decodes a model reply into items, tolerating a markdown code fence
// around the JSON array.
func Parse(text string) ([]Item, error) {
	text = stripFence(text)
	if text == "" {
		return nil, errors.New("empty model response")
	}

	var raw []Item
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}

	items := make([]Item, 0, len(raw))
	for _, it := range raw {
		it.Setup = strings.TrimSpace(it.Setup)
		it.Punchline = strings.TrimSpace(it.Punchline)
		it.Content = strings.TrimSpace(it.Content)
		if it.Setup == "" || it.Punchline == "" {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
