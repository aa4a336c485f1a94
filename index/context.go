package index

import (
	"fmt"
	"strings"

	"github.com/ywangkg/ontorag/graphstore"
)

// maxContextRelations caps how many relationships are summarized per entity.
const maxContextRelations = 3

// AssembleContext renders retrieved documents and the relationships touching
// them into the plain-text block handed to the query model. Documents keep
// their retrieval order; the relationship summary only covers entities that
// actually appear in docs.
func AssembleContext(docs []RetrievedDoc, rels []graphstore.Relation) string {
	var b strings.Builder

	for i, doc := range docs {
		fmt.Fprintf(&b, "Document %d: %s\n", i+1, doc.Content)
		if doc.Meta.URI != "" {
			fmt.Fprintf(&b, "  URI: %s\n", doc.Meta.URI)
		}
		if doc.Meta.Label != "" {
			fmt.Fprintf(&b, "  Label: %s\n", doc.Meta.Label)
		}
		b.WriteString("\n")
	}

	var relLines []string
	for _, doc := range docs {
		if doc.Meta.URI == "" {
			continue
		}
		summaries := relationSummaries(doc.Meta, rels)
		if len(summaries) == 0 {
			continue
		}
		label := doc.Meta.Label
		if label == "" {
			label = graphstore.CleanLabel(doc.Meta.URI)
		}
		relLines = append(relLines, fmt.Sprintf("Related to %s: %s", label, strings.Join(summaries, "; ")))
	}
	if len(relLines) > 0 {
		b.WriteString("Related Entities and Relationships:\n")
		for _, line := range relLines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// relationSummaries renders up to maxContextRelations edges touching the
// entity, pointing each arrow away from or toward it as the edge direction
// dictates.
func relationSummaries(meta Metadata, rels []graphstore.Relation) []string {
	label := meta.Label
	if label == "" {
		label = "Entity"
	}

	var out []string
	for _, rel := range rels {
		if len(out) >= maxContextRelations {
			break
		}
		switch meta.URI {
		case rel.SourceURI:
			out = append(out, fmt.Sprintf("%s --%s--> %s", label, rel.Type, endpointLabel(rel.TargetName, rel.TargetURI)))
		case rel.TargetURI:
			out = append(out, fmt.Sprintf("%s --%s--> %s", endpointLabel(rel.SourceName, rel.SourceURI), rel.Type, label))
		}
	}
	return out
}

func endpointLabel(name, uri string) string {
	if name != "" {
		return name
	}
	return graphstore.CleanLabel(uri)
}
