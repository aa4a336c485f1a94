// Package synth turns natural-language questions into graph queries.
//
// A Synthesizer drives one model-backed attempt loop per question: build
// the prompt, invoke the chat model, extract a candidate query from the
// response, and repair known model mistakes. The query language specifics
// live behind the Dialect interface so Cypher and SPARQL share the loop.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ywangkg/ontorag/llm"
)

// Dialect holds the query-language-specific half of synthesis.
type Dialect interface {
	// Name identifies the dialect in logs and results.
	Name() string
	// BuildPrompt assembles the full generation prompt from the question,
	// the introspected schema, and the retrieved context block.
	BuildPrompt(question, schema, contextBlock string) string
	// Extract pulls a candidate query out of a raw model response.
	// ok is false when no recognizable query is present.
	Extract(response string) (query string, ok bool)
	// Repair fixes known structural mistakes in an extracted query.
	// Repair must be idempotent: repairing an already-repaired query
	// changes nothing.
	Repair(query string) string
	// Fallback is the safe query used when every attempt fails.
	Fallback() string
}

// Config holds synthesizer configuration.
type Config struct {
	MaxAttempts int
	MaxTokens   int
}

// Result is the outcome of one synthesis run.
type Result struct {
	Query    string `json:"query"`
	Dialect  string `json:"dialect"`
	Fallback bool   `json:"fallback"`
	Attempts int    `json:"attempts"`
	Raw      string `json:"raw,omitempty"` // last model response, for replay
}

// Synthesizer generates graph queries from questions using a chat model.
type Synthesizer struct {
	chat    llm.Provider
	dialect Dialect
	cfg     Config
}

// New creates a synthesizer for the given dialect.
func New(chat llm.Provider, dialect Dialect, cfg Config) *Synthesizer {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	return &Synthesizer{chat: chat, dialect: dialect, cfg: cfg}
}

// Synthesize runs the attempt loop and always returns a usable result:
// either an extracted-and-repaired query or the dialect's fallback. The
// error return is reserved for context cancellation.
func (s *Synthesizer) Synthesize(ctx context.Context, question, schema, contextBlock string) (*Result, error) {
	prompt := s.dialect.BuildPrompt(question, schema, contextBlock)

	var lastRaw string
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := s.chat.Chat(ctx, llm.ChatRequest{
			Messages: []llm.Message{
				{Role: "user", Content: prompt},
			},
			Temperature: 0,
			MaxTokens:   s.cfg.MaxTokens,
		})
		if err != nil {
			slog.Warn("synth: model invocation failed",
				"dialect", s.dialect.Name(), "attempt", attempt, "error", err)
			continue
		}
		lastRaw = resp.Content
		slog.Info("synth: model responded",
			"dialect", s.dialect.Name(), "attempt", attempt,
			"tokens", resp.TotalTokens, "elapsed", time.Since(start).Round(time.Millisecond))

		query, ok := s.dialect.Extract(resp.Content)
		if !ok {
			slog.Warn("synth: no query in response",
				"dialect", s.dialect.Name(), "attempt", attempt)
			continue
		}

		return &Result{
			Query:    s.dialect.Repair(query),
			Dialect:  s.dialect.Name(),
			Attempts: attempt,
			Raw:      resp.Content,
		}, nil
	}

	slog.Warn("synth: all attempts failed, using fallback",
		"dialect", s.dialect.Name(), "attempts", s.cfg.MaxAttempts)
	return &Result{
		Query:    s.dialect.Fallback(),
		Dialect:  s.dialect.Name(),
		Fallback: true,
		Attempts: s.cfg.MaxAttempts,
		Raw:      lastRaw,
	}, nil
}

// ForDialect returns the dialect implementation for a config name.
func ForDialect(name, graphIRI string) (Dialect, error) {
	switch name {
	case "cypher", "":
		return &CypherDialect{}, nil
	case "sparql":
		return &SPARQLDialect{GraphIRI: graphIRI}, nil
	default:
		return nil, fmt.Errorf("unknown query dialect %q", name)
	}
}
