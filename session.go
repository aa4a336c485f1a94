// Package ontorag is a retrieval-augmented natural-language interface over
// an OntoDM knowledge graph: questions are grounded with vector retrieval
// over enriched graph passages, translated into Cypher or SPARQL by a chat
// model, and executed against the graph store.
package ontorag

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ywangkg/ontorag/graphstore"
	"github.com/ywangkg/ontorag/index"
	"github.com/ywangkg/ontorag/llm"
	"github.com/ywangkg/ontorag/synth"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statStyle   = lipgloss.NewStyle().Faint(true)
	queryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Session is an interactive question-answering session over the knowledge
// graph. All artifacts are loaded and all connections probed at creation;
// once a session exists, per-turn failures never terminate it.
type Session struct {
	cfg       Config
	idx       *index.Index
	retriever *index.Retriever
	dialect   synth.Dialect
	synth     *synth.Synthesizer
	executor  *synth.Executor
	store     graphstore.Querier
	neo       *graphstore.Store // nil when the store is SPARQL
}

// NewSession loads the index artifacts, builds the providers, and connects
// to the graph store. Any missing artifact or a failed auth probe aborts
// here, before the first question.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	idx, err := index.Load(cfg.IndexDir)
	if err != nil {
		return nil, err
	}

	embedder, err := llm.NewProvider(cfg.Embedding)
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("%w: embedding: %v", ErrInvalidConfig, err)
	}
	chat, err := llm.NewProvider(cfg.Chat)
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("%w: chat: %v", ErrInvalidConfig, err)
	}

	dialect, err := synth.ForDialect(cfg.Dialect, cfg.SPARQL.GraphIRI)
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s := &Session{
		cfg:       cfg,
		idx:       idx,
		retriever: index.NewRetriever(idx, embedder),
		dialect:   dialect,
		synth: synth.New(chat, dialect, synth.Config{
			MaxAttempts: cfg.MaxAttempts,
			MaxTokens:   cfg.MaxOutputTokens,
		}),
	}

	switch dialect.Name() {
	case "sparql":
		s.store = graphstore.NewSPARQLStore(cfg.SPARQL)
	default:
		neo, err := graphstore.Connect(ctx, cfg.Graph)
		if err != nil {
			idx.Close()
			return nil, err
		}
		s.neo = neo
		s.store = neo
	}
	s.executor = synth.NewExecutor(s.store)

	slog.Info("session: ready",
		"dialect", dialect.Name(), "passages", idx.Size(), "relationships", len(idx.Relations))
	return s, nil
}

// Close releases the index and the store connection.
func (s *Session) Close(ctx context.Context) error {
	ierr := s.idx.Close()
	if s.neo != nil {
		if err := s.neo.Close(ctx); err != nil {
			return err
		}
	}
	return ierr
}

// Run drives the read-question, answer loop until EOF or an exit command.
// One question is one turn; retrieval, synthesis, and execution failures are
// reported and the loop continues.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, bannerStyle.Render("OntoRAG knowledge graph query session (type 'exit' to quit)"))
	fmt.Fprintln(out, statStyle.Render(fmt.Sprintf("Loaded %d enriched passages", s.idx.Size())))
	if n := len(s.idx.Relations); n > 0 {
		fmt.Fprintln(out, statStyle.Render(fmt.Sprintf("%d relationships available for context", n)))
	}
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		switch strings.ToLower(question) {
		case "exit", "quit":
			return scanner.Err()
		}

		if err := s.Turn(ctx, question, out); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Turn answers one question end to end and writes the result to out. The
// returned error is reserved for context cancellation; everything else is
// rendered and absorbed.
func (s *Session) Turn(ctx context.Context, question string, out io.Writer) error {
	docs, err := s.retriever.Retrieve(ctx, question, s.cfg.TopK)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("Retrieval failed: %v", err)))
		return nil
	}
	contextBlock := index.AssembleContext(docs, s.idx.Relations)

	schema := s.introspect(ctx)

	result, err := s.synth.Synthesize(ctx, question, schema, contextBlock)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nGenerated %s query:\n%s\n\n", result.Dialect, queryStyle.Render(result.Query))
	if result.Fallback {
		fmt.Fprintln(out, statStyle.Render("(model produced no usable query, ran the fallback)"))
	}

	rows, err := s.executor.Execute(ctx, result.Query, question)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case errors.Is(err, graphstore.ErrQuery):
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("Query execution failed: %v", err)))
			fmt.Fprintln(out, statStyle.Render("This might be due to schema differences or parameter issues."))
		default:
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("Store error: %v", err)))
		}
		return nil
	}

	renderRows(out, rows)
	return nil
}

// introspect fetches the live schema for prompt grounding. The SPARQL
// dialect carries a static schema block, so only Cypher sessions hit the
// store here. Failures degrade to an empty schema rather than losing the
// turn.
func (s *Session) introspect(ctx context.Context) string {
	if s.dialect.Name() != "cypher" {
		return ""
	}
	schema, err := graphstore.Introspect(ctx, s.store)
	if err != nil {
		slog.Warn("session: schema introspection failed", "error", err)
		return ""
	}
	return schema
}

func renderRows(out io.Writer, rows []graphstore.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No results found.")
		fmt.Fprintln(out)
		return
	}

	fmt.Fprintln(out, "Results:")
	for i, row := range rows {
		if len(row.Keys) == 1 {
			fmt.Fprintf(out, "  %d. %v\n", i+1, row.Value(row.Keys[0]))
			continue
		}
		parts := make([]string, len(row.Keys))
		for j, key := range row.Keys {
			parts[j] = fmt.Sprintf("%v", row.Value(key))
		}
		fmt.Fprintf(out, "  %d. %s\n", i+1, strings.Join(parts, " | "))
	}
	fmt.Fprintf(out, "\nFound %d result(s).\n\n", len(rows))
}
