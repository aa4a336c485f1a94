package synth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ywangkg/ontorag/graphstore"
)

type fakeQuerier struct {
	rows   []graphstore.Row
	err    error
	params map[string]any
}

func (f *fakeQuerier) Run(ctx context.Context, query string, params map[string]any) ([]graphstore.Row, error) {
	f.params = params
	return f.rows, f.err
}

func TestExtractParams(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		question string
		want     map[string]any
	}{
		{
			name:     "name from quoted phrase",
			query:    "MATCH (d:Dataset {name: $name}) RETURN d",
			question: "How many features does 'WorldBankDataset' have?",
			want:     map[string]any{"name": "WorldBankDataset"},
		},
		{
			name:     "license phrase",
			query:    "MATCH (d:Dataset) WHERE d.license = $license RETURN d",
			question: "Which datasets exist whose license is 'CC-BY-4.0'?",
			want:     map[string]any{"license": "CC-BY-4.0"},
		},
		{
			name:     "license case insensitive",
			query:    "MATCH (d) WHERE d.license = $license RETURN d",
			question: "datasets where LICENSE = 'MIT'",
			want:     map[string]any{"license": "MIT"},
		},
		{
			name:     "placeholder without match stays unbound",
			query:    "MATCH (d:Dataset {name: $name}) RETURN d",
			question: "How many features does WorldBankDataset have?",
			want:     map[string]any{},
		},
		{
			name:     "no placeholders",
			query:    "MATCH (n) RETURN count(n)",
			question: "total 'nodes'?",
			want:     map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractParams(tt.query, tt.question)
			if len(got) != len(tt.want) {
				t.Fatalf("params: got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("param %s: got %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestExecutePassesParams(t *testing.T) {
	store := &fakeQuerier{rows: []graphstore.Row{
		{Keys: []string{"feature_count"}, Values: map[string]any{"feature_count": int64(12)}},
	}}
	e := NewExecutor(store)

	rows, err := e.Execute(context.Background(),
		"MATCH (d:Dataset {name: $name})-[:hasFeature]->(f) RETURN COUNT(f) AS feature_count",
		"How many features does 'WorldBankDataset' have?")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}
	if store.params["name"] != "WorldBankDataset" {
		t.Errorf("store did not receive the extracted param, got %v", store.params)
	}
}

func TestExecuteClassifiedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"query rejected", fmt.Errorf("%w: unknown label", graphstore.ErrQuery), graphstore.ErrQuery},
		{"store down", fmt.Errorf("%w: dial tcp", graphstore.ErrUnavailable), graphstore.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExecutor(&fakeQuerier{err: tt.err})
			_, err := e.Execute(context.Background(), "MATCH (n) RETURN n", "q")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestExecuteEmptyRowsNotAnError(t *testing.T) {
	e := NewExecutor(&fakeQuerier{})
	rows, err := e.Execute(context.Background(), "MATCH (n:Nothing) RETURN n", "q")
	if err != nil {
		t.Fatalf("empty result should not be an error, got %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows: got %d, want 0", len(rows))
	}
}
