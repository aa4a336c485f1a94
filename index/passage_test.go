package index

import (
	"strings"
	"testing"

	"github.com/ywangkg/ontorag/graphstore"
)

func TestBuildPassages(t *testing.T) {
	nodes := []graphstore.Node{
		{
			URI:         "http://example.org/WorldBankDataset",
			Name:        "WorldBankDataset",
			Description: "Economic indicators by country.",
			Labels:      []string{"Dataset"},
			Props:       map[string]any{"license": "CC-BY-4.0", "uri": "ignored"},
		},
	}
	rels := []graphstore.Relation{
		{
			SourceURI:  "http://example.org/WorldBankDataset",
			Type:       "hasFeature",
			TargetURI:  "http://example.org/GDPField",
			TargetName: "GDP",
		},
	}

	passages := BuildPassages(nodes, rels)
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}

	want := "Name: WorldBankDataset. Type: Dataset. Description: Economic indicators by country. license: CC-BY-4.0. has hasFeature GDP"
	if passages[0].Text != want {
		t.Errorf("passage text:\ngot  %q\nwant %q", passages[0].Text, want)
	}
	if passages[0].Meta.URI != nodes[0].URI {
		t.Errorf("metadata URI: got %q, want %q", passages[0].Meta.URI, nodes[0].URI)
	}
	if passages[0].Meta.Label != "WorldBankDataset" {
		t.Errorf("metadata label: got %q, want WorldBankDataset", passages[0].Meta.Label)
	}
}

func TestBuildPassagesAlignment(t *testing.T) {
	nodes := []graphstore.Node{
		{URI: "http://example.org/a", Name: "A"},
		{URI: "http://example.org/b", Name: "B"},
		{URI: "http://example.org/c"},
	}

	passages := BuildPassages(nodes, nil)
	if len(passages) != len(nodes) {
		t.Fatalf("expected one passage per node, got %d for %d nodes", len(passages), len(nodes))
	}
	for i, p := range passages {
		if p.Meta.URI != nodes[i].URI {
			t.Errorf("position %d: metadata URI %q does not match node %q", i, p.Meta.URI, nodes[i].URI)
		}
	}
}

func TestPassageTextRelationCap(t *testing.T) {
	node := graphstore.Node{URI: "http://example.org/hub", Name: "Hub"}
	var rels []graphstore.Relation
	for i := 0; i < 10; i++ {
		rels = append(rels, graphstore.Relation{
			SourceURI:  "http://example.org/hub",
			Type:       "hasFeature",
			TargetName: "F",
		})
	}

	text := passageText(node, rels)
	if got := strings.Count(text, "has hasFeature"); got != maxRelationParts {
		t.Errorf("expected %d relation parts, got %d", maxRelationParts, got)
	}
}

func TestPassageTextDirection(t *testing.T) {
	node := graphstore.Node{URI: "http://example.org/gdp", Name: "GDP"}
	rels := []graphstore.Relation{
		{
			SourceURI:  "http://example.org/ds",
			SourceName: "WorldBankDataset",
			Type:       "hasFeature",
			TargetURI:  "http://example.org/gdp",
		},
	}

	text := passageText(node, rels)
	if !strings.Contains(text, "is hasFeature of WorldBankDataset") {
		t.Errorf("expected inbound relation phrasing, got %q", text)
	}
}

func TestPassageTextEmptyNode(t *testing.T) {
	if got := passageText(graphstore.Node{}, nil); got != "" {
		t.Errorf("empty node should produce empty text, got %q", got)
	}
}

func TestDisplayLabelFallback(t *testing.T) {
	tests := []struct {
		name string
		node graphstore.Node
		want string
	}{
		{"name wins", graphstore.Node{Name: "N", Labels: []string{"Dataset"}}, "N"},
		{"label fallback", graphstore.Node{Labels: []string{"Dataset", "Entity"}}, "Dataset"},
		{"unknown", graphstore.Node{URI: "http://example.org/x"}, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayLabel(tt.node); got != tt.want {
				t.Errorf("displayLabel: got %q, want %q", got, tt.want)
			}
		})
	}
}
