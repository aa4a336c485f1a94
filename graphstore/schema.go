package graphstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// maxSchemaLabels bounds how many labels get sampled during introspection.
const maxSchemaLabels = 5

// maxLabelSamples bounds how many example nodes are inspected per label.
const maxLabelSamples = 3

// Introspect queries the store for its current node labels, relationship
// types, and property keys, samples a few nodes for each of the first labels,
// and renders a fixed-format text block for prompt injection.
//
// A sampling failure for one label is rendered inline as an error annotation
// for that label only; it never aborts the rest of the introspection.
func Introspect(ctx context.Context, q Querier) (string, error) {
	labels, err := columnStrings(ctx, q, "CALL db.labels()")
	if err != nil {
		return "", fmt.Errorf("listing labels: %w", err)
	}
	relTypes, err := columnStrings(ctx, q, "CALL db.relationshipTypes()")
	if err != nil {
		return "", fmt.Errorf("listing relationship types: %w", err)
	}
	propKeys, err := columnStrings(ctx, q, "CALL db.propertyKeys()")
	if err != nil {
		return "", fmt.Errorf("listing property keys: %w", err)
	}

	var details []string
	for i, label := range labels {
		if i >= maxSchemaLabels {
			break
		}
		detail, err := sampleLabel(ctx, q, label)
		if err != nil {
			details = append(details, fmt.Sprintf("- %s (error: %v)", label, err))
			continue
		}
		details = append(details, detail...)
	}

	var b strings.Builder
	b.WriteString("=== NODE LABELS ===\n")
	b.WriteString(strings.Join(details, "\n"))
	b.WriteString("\n\n=== RELATIONSHIP TYPES ===\n")
	for _, rel := range relTypes {
		b.WriteString("- " + rel + "\n")
	}
	b.WriteString("\n=== PROPERTIES ===\n")
	for _, prop := range propKeys {
		b.WriteString("- " + prop + "\n")
	}
	return b.String(), nil
}

// sampleLabel returns the node count line and the union of property keys
// observed on up to maxLabelSamples example nodes.
func sampleLabel(ctx context.Context, q Querier, label string) ([]string, error) {
	countRows, err := q.Run(ctx,
		fmt.Sprintf("MATCH (n:`%s`) RETURN count(n) AS count", label), nil)
	if err != nil {
		return nil, err
	}
	var count int64
	if len(countRows) > 0 {
		count = asInt64(countRows[0].Value("count"))
	}

	sampleRows, err := q.Run(ctx,
		fmt.Sprintf("MATCH (n:`%s`) RETURN properties(n) AS props LIMIT %d", label, maxLabelSamples), nil)
	if err != nil {
		return nil, err
	}

	lines := []string{fmt.Sprintf("- %s (%d nodes)", label, count)}
	keySet := make(map[string]bool)
	for _, row := range sampleRows {
		for key := range asMap(row.Value("props")) {
			keySet[key] = true
		}
	}
	if len(keySet) > 0 {
		keys := make([]string, 0, len(keySet))
		for k := range keySet {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines = append(lines, "  Properties: "+strings.Join(keys, ", "))
	}
	return lines, nil
}

// columnStrings runs a query and collects the first column of every row.
func columnStrings(ctx context.Context, q Querier, query string) ([]string, error) {
	rows, err := q.Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row.Keys) == 0 {
			continue
		}
		out = append(out, asString(row.Value(row.Keys[0])))
	}
	return out, nil
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func asStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			out = append(out, asString(e))
		}
		return out
	}
	return nil
}
