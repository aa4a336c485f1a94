package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SPARQLStore executes SPARQL queries against a GraphDB-style HTTP endpoint.
// It implements Querier: rows carry the projection variables in head order
// with plain string values. SPARQL has no named-parameter protocol, so the
// params argument is ignored; parameterization happens at prompt level.
type SPARQLStore struct {
	endpoint string
	client   *http.Client
}

// SPARQLConfig holds connection settings for a SPARQL endpoint.
type SPARQLConfig struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	GraphIRI string `json:"graph_iri" yaml:"graph_iri"`
}

// NewSPARQLStore creates a client for the given repository endpoint.
func NewSPARQLStore(cfg SPARQLConfig) *SPARQLStore {
	return &SPARQLStore{
		endpoint: cfg.Endpoint,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// sparqlResults mirrors the application/sparql-results+json layout.
type sparqlResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Run posts the query and decodes the JSON result bindings into rows.
func (s *SPARQLStore) Run(ctx context.Context, query string, _ map[string]any) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/sparql-query")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %d: %s", ErrAuth, resp.StatusCode, body)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: %d: %s", ErrQuery, resp.StatusCode, body)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %d: %s", ErrUnavailable, resp.StatusCode, body)
	}

	var results sparqlResults
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("%w: decoding results: %v", ErrUnavailable, err)
	}

	rows := make([]Row, 0, len(results.Results.Bindings))
	for _, binding := range results.Results.Bindings {
		row := Row{
			Keys:   results.Head.Vars,
			Values: make(map[string]any, len(binding)),
		}
		for name, v := range binding {
			row.Values[name] = v.Value
		}
		rows = append(rows, row)
	}
	return rows, nil
}
