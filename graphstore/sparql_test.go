package graphstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sparqlServer(t *testing.T, status int, body string) *SPARQLStore {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/sparql-query" {
			t.Errorf("Content-Type: got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/sparql-results+json" {
			t.Errorf("Accept: got %q", got)
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewSPARQLStore(SPARQLConfig{Endpoint: srv.URL})
}

func TestSPARQLRun(t *testing.T) {
	store := sparqlServer(t, http.StatusOK, `{
		"head": {"vars": ["ds", "name"]},
		"results": {"bindings": [
			{"ds": {"type": "uri", "value": "http://example.org/ds1"},
			 "name": {"type": "literal", "value": "WorldBankDataset"}},
			{"ds": {"type": "uri", "value": "http://example.org/ds2"},
			 "name": {"type": "literal", "value": "SpotifySongs"}}
		]}
	}`)

	rows, err := store.Run(context.Background(), "SELECT ?ds ?name WHERE { ?ds ?p ?name }", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if got := rows[0].Value("name"); got != "WorldBankDataset" {
		t.Errorf("first row name: got %v", got)
	}
	if len(rows[0].Keys) != 2 || rows[0].Keys[0] != "ds" {
		t.Errorf("keys should follow head order, got %v", rows[0].Keys)
	}
}

func TestSPARQLRunEmptyBindings(t *testing.T) {
	store := sparqlServer(t, http.StatusOK, `{"head": {"vars": ["s"]}, "results": {"bindings": []}}`)

	rows, err := store.Run(context.Background(), "SELECT ?s WHERE { ?s ?p ?o }", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows: got %d, want 0", len(rows))
	}
}

func TestSPARQLRunErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuth},
		{"forbidden", http.StatusForbidden, ErrAuth},
		{"malformed query", http.StatusBadRequest, ErrQuery},
		{"server error", http.StatusInternalServerError, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := sparqlServer(t, tt.status, "nope")
			_, err := store.Run(context.Background(), "SELECT ?s WHERE { ?s ?p ?o }", nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
			}
		})
	}
}

func TestSPARQLRunUnreachable(t *testing.T) {
	store := NewSPARQLStore(SPARQLConfig{Endpoint: "http://127.0.0.1:1/repositories/none"})

	_, err := store.Run(context.Background(), "SELECT ?s WHERE { ?s ?p ?o }", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
