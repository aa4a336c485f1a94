package synth

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ywangkg/ontorag/graphstore"
)

// Executor runs synthesized queries against a graph store, filling in
// query parameters guessed from the question text.
type Executor struct {
	store graphstore.Querier
}

// NewExecutor creates an executor over a graph store.
func NewExecutor(store graphstore.Querier) *Executor {
	return &Executor{store: store}
}

var (
	quotedValue   = regexp.MustCompile(`'(.+?)'`)
	licensePhrase = regexp.MustCompile(`(?i)license (?:is|=) '(.+?)'`)
)

// Execute runs the query with parameters extracted from the question.
// Errors come back classified by the store: failed auth, a rejected query,
// or an unreachable endpoint.
func (e *Executor) Execute(ctx context.Context, query, question string) ([]graphstore.Row, error) {
	params := ExtractParams(query, question)
	rows, err := e.store.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	slog.Info("execute: query done", "rows", len(rows), "params", len(params))
	return rows, nil
}

// ExtractParams guesses values for the parameter placeholders a query
// references: $name binds the first single-quoted phrase in the question,
// $license binds the quoted value after "license is" or "license =".
// Placeholders with no match in the question are left unbound.
func ExtractParams(query, question string) map[string]any {
	params := map[string]any{}
	if strings.Contains(query, "$name") {
		if m := quotedValue.FindStringSubmatch(question); m != nil {
			params["name"] = m[1]
		}
	}
	if strings.Contains(query, "$license") {
		if m := licensePhrase.FindStringSubmatch(question); m != nil {
			params["license"] = m[1]
		}
	}
	return params
}
