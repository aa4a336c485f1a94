package synth

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultGraphIRI is the named graph queried when none is configured.
const DefaultGraphIRI = "http://example.org/graph/enrichment"

// SPARQLDialect generates SPARQL for an RDF store. Every generated query
// is scoped to GraphIRI via a GRAPH block.
type SPARQLDialect struct {
	GraphIRI string
}

func (d *SPARQLDialect) Name() string { return "sparql" }

func (d *SPARQLDialect) graphIRI() string {
	if d.GraphIRI == "" {
		return DefaultGraphIRI
	}
	return d.GraphIRI
}

const sparqlSchemaContext = `Known OntoDM Structure:
- ontodm:Dataset
- ontodm:Feature
- ontodm:TaskSpecification
- ontodm:Modality
- ontodm:hasName
- ontodm:hasDescription
- ontodm:has_part
- ontodm:hasFeature
- ontodm:hasTask
- ontodm:is_specified_input_of
- ontodm:hasDataType
- dcterms:license

Common Path Patterns:
- ?x ontodm:hasName ?name
- ?x a ontodm:Dataset
- ?dataset ontodm:has_part ?feature
- ?dataset ontodm:hasFeature ?feature
- ?dataset ontodm:hasTask ?task
- ?dataset dcterms:license ?license`

var sparqlRules = []string{
	"1. Always include relevant PREFIX declarations.",
	"2. Do NOT use FROM; wrap your triple patterns in a GRAPH block.",
	"3. Use rdf:type (or `a`) for class filtering.",
	"4. Chain predicates with semicolons when they share the same subject.",
	"5. Use FILTER(CONTAINS(LCASE(STR(?var)), \"keyword\")): matching is case-insensitive.",
	"6. Use SELECT DISTINCT when appropriate.",
	"7. Combine multiple parts with commas: `ontodm:has_part ?p1, ?p2`.",
	"8. Use COUNT, GROUP BY, ORDER BY for aggregates.",
	"9. Expand partial names via predefined mappings.",
	"10. Follow the formatting style of provided examples.",
	"11. For tasks/features, use `ontodm:hasName` (not `rdfs:label`).",
	"12. Prioritize clarity and consistency with your examples.",
	"13. To inspect a Dataset's parts, use `ontodm:has_part` + `ontodm:hasName`.",
	"14. If the question asks how X supports Y, use `ontodm:is_specified_input_of` (or `is_specified_output_of`) instead of `has_part`.",
	"15. When selecting parts of a specific dataset by name, first bind and filter its name with FILTER(CONTAINS(LCASE(STR(?name)), \"<keyword>\")).",
	"16. For comparison questions (which X has more/fewer Y), use a single aggregated query with GROUP BY and ORDER BY DESC. Do NOT use UNION for such comparisons.",
	"17. Whenever you use an aggregate (e.g. `COUNT(?x)`) in SELECT, include `GROUP BY` over every other projected variable and optionally `ORDER BY DESC(...)`.",
	"18. When a field may lack a description, use `OPTIONAL { ?x ontodm:hasDescription ?desc }`.",
	"19. In every OPTIONAL { ... } block, always repeat the subject variable.",
	"20. Use `ontodm:has_part` to link datasets to their features.",
	"21. Return only the SPARQL query, with no commentary.",
}

// BuildPrompt assembles the SPARQL generation prompt: role framing, the
// known ontology structure, the rule list, the live schema when present,
// few-shot examples scoped to the configured graph, retrieved context,
// question.
func (d *SPARQLDialect) BuildPrompt(question, schema, contextBlock string) string {
	iri := d.graphIRI()

	var b strings.Builder
	b.WriteString("You are an expert SPARQL query assistant.\n\n")
	b.WriteString(sparqlSchemaContext)
	b.WriteString("\n\nRules:\n")
	b.WriteString(strings.Join(sparqlRules, "\n"))

	if schema = strings.TrimSpace(schema); schema != "" {
		b.WriteString("\n\nLIVE SCHEMA:\n")
		b.WriteString(schema)
	}

	fmt.Fprintf(&b, `

### Example 1
NL: "What is the modality of the Spotify dataset?"
SPARQL:
PREFIX ontodm: <https://purl.org/ontodm#>
PREFIX dcterms: <http://purl.org/dc/terms/>
PREFIX ex: <http://example.org/>

SELECT ?modality
WHERE {
  GRAPH <%s> {
    ex:Dataset_200kSpotifySongs a ontodm:Dataset ;
      ontodm:hasModality ?modality .
  }
}

### Example 2
NL: "Which datasets have license CC-BY-4.0?"
SPARQL:
PREFIX ontodm: <https://purl.org/ontodm#>
PREFIX dcterms: <http://purl.org/dc/terms/>
PREFIX ex: <http://example.org/>

SELECT ?ds ?name
WHERE {
  GRAPH <%s> {
    ?ds a ontodm:Dataset ;
        dcterms:license <https://creativecommons.org/licenses/by/4.0/> ;
        ontodm:hasName ?name .
  }
}
`, iri, iri)

	if block := strings.TrimSpace(contextBlock); block != "" {
		b.WriteString("\nCONTEXT FROM RETRIEVAL:\n")
		b.WriteString(block)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n### Now convert:\nNL: %q\nSPARQL:\n", question)
	return b.String()
}

var (
	sparqlFence = regexp.MustCompile("(?is)```sparql\\s*(.*?)\\s*```")
	sparqlBody  = regexp.MustCompile(`(?s)(PREFIX[\s\S]*\})`)
)

// Extract pulls a SPARQL query out of the model response: a fenced sparql
// block first, then the span from the first PREFIX through the last brace.
func (d *SPARQLDialect) Extract(response string) (string, bool) {
	if m := sparqlFence.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := sparqlBody.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

var (
	fromClause      = regexp.MustCompile(`(?i)\bFROM\b\s*<[^>]+>`)
	aggregateCall   = regexp.MustCompile(`(?i)\b(COUNT|SUM|AVG|MIN|MAX)\s*\(`)
	aggregateAlias  = regexp.MustCompile(`(?i)\((?:COUNT|SUM|AVG|MIN|MAX)\s*\([^)]*\)\s+AS\s+(\?\w+)\s*\)`)
	selectClause    = regexp.MustCompile(`(?is)SELECT\s+(?:DISTINCT\s+)?(.*?)\s*WHERE`)
	projectedVar    = regexp.MustCompile(`\?\w+`)
	aggregateInline = regexp.MustCompile(`(?i)\((?:COUNT|SUM|AVG|MIN|MAX)\s*\([^)]*\)(?:\s+AS\s+\?\w+)?\s*\)|\b(?:COUNT|SUM|AVG|MIN|MAX)\s*\([^)]*\)`)
)

// Repair fixes the three recurring model mistakes: FROM clauses instead of
// a GRAPH block, a WHERE body with no GRAPH block at all, and a single
// aggregate projected without GROUP BY. Queries with multiple aggregates
// are left alone.
func (d *SPARQLDialect) Repair(query string) string {
	query = strings.TrimSpace(query)

	query = strings.TrimSpace(fromClause.ReplaceAllString(query, ""))
	query = d.wrapGraph(query)
	query = d.repairAggregate(query)
	return query
}

// wrapGraph scopes the WHERE body to the configured graph when the model
// forgot to.
func (d *SPARQLDialect) wrapGraph(query string) string {
	_, after, found := strings.Cut(query, "WHERE")
	if !found || strings.Contains(after, "GRAPH <") {
		return query
	}

	wrapped := strings.Replace(query, "WHERE {", fmt.Sprintf("WHERE {\n  GRAPH <%s> {", d.graphIRI()), 1)
	if wrapped == query {
		return query
	}
	// The original closing brace of WHERE now closes GRAPH; add one more
	// before any trailing solution modifiers.
	last := strings.LastIndex(wrapped, "}")
	if last < 0 {
		return query
	}
	return wrapped[:last+1] + "\n}" + wrapped[last+1:]
}

// repairAggregate adds GROUP BY over the non-aggregate projected variables
// when exactly one aggregate is projected without one, plus ORDER BY DESC
// on the aggregate alias when the model named one.
func (d *SPARQLDialect) repairAggregate(query string) string {
	if strings.Contains(strings.ToUpper(query), "GROUP BY") {
		return query
	}
	sel := selectClause.FindStringSubmatch(query)
	if sel == nil {
		return query
	}
	projection := sel[1]
	if len(aggregateCall.FindAllString(projection, -1)) != 1 {
		return query
	}

	groupVars := projectedVar.FindAllString(aggregateInline.ReplaceAllString(projection, ""), -1)
	if len(groupVars) == 0 {
		return query
	}

	repaired := strings.TrimSpace(query) + "\nGROUP BY " + strings.Join(groupVars, " ")
	if alias := aggregateAlias.FindStringSubmatch(projection); alias != nil {
		repaired += fmt.Sprintf("\nORDER BY DESC(%s)", alias[1])
	}
	return repaired
}

func (d *SPARQLDialect) Fallback() string {
	return fmt.Sprintf("SELECT (COUNT(*) AS ?total) WHERE { GRAPH <%s> { ?s ?p ?o } }", d.graphIRI())
}
