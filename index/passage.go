package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ywangkg/ontorag/graphstore"
)

// maxRelationParts bounds the relationship context included in one passage.
// Edges beyond the cap are dropped without marking the truncation.
const maxRelationParts = 5

// Metadata is the snapshot of an entity stored alongside its passage.
// Properties is an open bag; unknown keys are display-only data.
type Metadata struct {
	URI         string         `json:"uri"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Labels      []string       `json:"labels"`
	Properties  map[string]any `json:"properties"`
}

// Passage is the generated text representation of one entity, paired with
// its metadata snapshot. Passages are built once per index generation and
// become stale when the entity store changes underneath them.
type Passage struct {
	Text string   `json:"text"`
	Meta Metadata `json:"meta"`
}

// BuildPassages produces one passage per node from a full store snapshot.
// Text parts appear in a stable order: name, type labels, description,
// remaining properties (sorted by key), then up to maxRelationParts
// relationship descriptions. It never mutates the snapshot.
func BuildPassages(nodes []graphstore.Node, rels []graphstore.Relation) []Passage {
	passages := make([]Passage, 0, len(nodes))
	for _, node := range nodes {
		passages = append(passages, Passage{
			Text: passageText(node, rels),
			Meta: Metadata{
				URI:         node.URI,
				Label:       displayLabel(node),
				Description: node.Description,
				Labels:      node.Labels,
				Properties:  node.Props,
			},
		})
	}
	return passages
}

func passageText(node graphstore.Node, rels []graphstore.Relation) string {
	var parts []string

	if node.Name != "" {
		parts = append(parts, "Name: "+node.Name)
	}
	if len(node.Labels) > 0 {
		parts = append(parts, "Type: "+strings.Join(node.Labels, ", "))
	}
	if node.Description != "" {
		parts = append(parts, "Description: "+node.Description)
	}

	keys := make([]string, 0, len(node.Props))
	for key := range node.Props {
		switch key {
		case "name", "description", "uri":
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if value := formatValue(node.Props[key]); value != "" {
			parts = append(parts, key+": "+value)
		}
	}

	count := 0
	for _, rel := range rels {
		if count >= maxRelationParts {
			break
		}
		switch node.URI {
		case "":
			// nodes without a URI have no relationship context
		case rel.SourceURI:
			parts = append(parts, "has "+rel.Type+" "+endpointName(rel.TargetName, rel.TargetURI))
			count++
		case rel.TargetURI:
			parts = append(parts, "is "+rel.Type+" of "+endpointName(rel.SourceName, rel.SourceURI))
			count++
		}
	}

	return strings.Join(parts, ". ")
}

// displayLabel picks the metadata label: node name, else first type label,
// else the literal Unknown.
func displayLabel(node graphstore.Node) string {
	if node.Name != "" {
		return node.Name
	}
	if len(node.Labels) > 0 {
		return node.Labels[0]
	}
	return "Unknown"
}

func endpointName(name, uri string) string {
	if name != "" {
		return name
	}
	return graphstore.CleanLabel(uri)
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprintf("%v", value)
	}
}
