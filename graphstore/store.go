package graphstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

var (
	// ErrAuth is returned when the store rejects the configured credentials.
	ErrAuth = errors.New("graphstore: authentication failed")

	// ErrQuery is returned when the store rejects a query (syntax error,
	// unknown label, bad parameter).
	ErrQuery = errors.New("graphstore: query rejected")

	// ErrUnavailable is returned for transport-level failures (store down,
	// network error, timeout).
	ErrUnavailable = errors.New("graphstore: store unavailable")
)

// Row is one result row: an ordered set of column names plus the value for
// each column. Keys preserves the projection order of the query.
type Row struct {
	Keys   []string       `json:"keys"`
	Values map[string]any `json:"values"`
}

// Value returns the value for a column, or nil when absent.
func (r Row) Value(key string) any {
	return r.Values[key]
}

// Querier executes a declarative graph query with optional named parameters.
// Implementations classify failures into ErrAuth, ErrQuery, or ErrUnavailable
// so callers can branch with errors.Is.
type Querier interface {
	Run(ctx context.Context, query string, params map[string]any) ([]Row, error)
}

// Config holds connection settings for the Neo4j entity store.
type Config struct {
	URI      string `json:"uri" yaml:"uri"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
}

// Store is a Neo4j-backed entity store. It holds a single long-lived session
// reused across turns; the store's implicit per-statement atomicity is the
// only transaction boundary.
type Store struct {
	driver  neo4j.DriverWithContext
	session neo4j.SessionWithContext
}

// Connect opens a driver and session and probes authentication with a
// trivial statement. An auth failure surfaces as ErrAuth so session startup
// can fail fast.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: cfg.Database})
	s := &Store{driver: driver, session: session}

	if _, err := s.Run(ctx, "RETURN 1", nil); err != nil {
		s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// Run executes a Cypher query on the long-lived session and materializes all
// result rows in projection order.
func (s *Store) Run(ctx context.Context, query string, params map[string]any) ([]Row, error) {
	result, err := s.session.Run(ctx, query, params)
	if err != nil {
		return nil, classify(err)
	}

	var rows []Row
	for result.Next(ctx) {
		rec := result.Record()
		row := Row{
			Keys:   rec.Keys,
			Values: make(map[string]any, len(rec.Keys)),
		}
		for i, key := range rec.Keys {
			row.Values[key] = rec.Values[i]
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

// Close shuts down the session and driver.
func (s *Store) Close(ctx context.Context) error {
	serr := s.session.Close(ctx)
	derr := s.driver.Close(ctx)
	if serr != nil {
		return serr
	}
	return derr
}

// classify maps a driver error onto the three error categories the rest of
// the system branches on.
func classify(err error) error {
	var neoErr *db.Neo4jError
	if errors.As(err, &neoErr) {
		switch {
		case strings.HasPrefix(neoErr.Code, "Neo.ClientError.Security."):
			return fmt.Errorf("%w: %s", ErrAuth, neoErr.Msg)
		case strings.HasPrefix(neoErr.Code, "Neo.ClientError."):
			return fmt.Errorf("%w: %s", ErrQuery, neoErr.Msg)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
