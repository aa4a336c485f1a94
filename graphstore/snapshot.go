package graphstore

import (
	"context"
	"log/slog"
)

// Node is one entity in the store: a stable URI, optional display fields,
// and an open property bag. Unknown property keys are display-only data.
type Node struct {
	URI         string         `json:"uri"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Labels      []string       `json:"labels"`
	Props       map[string]any `json:"properties"`
}

// Relation is one directed, typed edge between two node URIs.
type Relation struct {
	SourceURI  string         `json:"source"`
	Type       string         `json:"type"`
	TargetURI  string         `json:"target"`
	SourceName string         `json:"source_name"`
	TargetName string         `json:"target_name"`
	Props      map[string]any `json:"properties,omitempty"`
}

// Snapshot reads the full current node/relationship state of the store.
// Used by the offline index build; the interactive session never calls it.
func Snapshot(ctx context.Context, q Querier) ([]Node, []Relation, error) {
	nodeRows, err := q.Run(ctx, `
		MATCH (n)
		RETURN
			labels(n) AS labels,
			properties(n) AS props,
			n.uri AS uri,
			n.name AS name,
			n.description AS description
	`, nil)
	if err != nil {
		return nil, nil, err
	}

	nodes := make([]Node, 0, len(nodeRows))
	for _, row := range nodeRows {
		nodes = append(nodes, Node{
			URI:         asString(row.Value("uri")),
			Name:        asString(row.Value("name")),
			Description: asString(row.Value("description")),
			Labels:      asStringSlice(row.Value("labels")),
			Props:       asMap(row.Value("props")),
		})
	}
	slog.Info("snapshot: nodes loaded", "count", len(nodes))

	relRows, err := q.Run(ctx, `
		MATCH (a)-[r]->(b)
		RETURN
			a.uri AS source,
			type(r) AS type,
			b.uri AS target,
			properties(r) AS props,
			a.name AS source_name,
			b.name AS target_name
	`, nil)
	if err != nil {
		return nil, nil, err
	}

	rels := make([]Relation, 0, len(relRows))
	for _, row := range relRows {
		rels = append(rels, Relation{
			SourceURI:  asString(row.Value("source")),
			Type:       asString(row.Value("type")),
			TargetURI:  asString(row.Value("target")),
			SourceName: asString(row.Value("source_name")),
			TargetName: asString(row.Value("target_name")),
			Props:      asMap(row.Value("props")),
		})
	}
	slog.Info("snapshot: relationships loaded", "count", len(rels))

	return nodes, rels, nil
}
