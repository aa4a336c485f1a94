package synth

import (
	"fmt"
	"regexp"
	"strings"
)

// CypherDialect generates Cypher for Neo4j.
type CypherDialect struct{}

func (d *CypherDialect) Name() string { return "cypher" }

type cypherExample struct {
	question string
	cypher   string
}

var cypherExamples = []cypherExample{
	{
		question: "What datasets are available?",
		cypher:   "MATCH (d:Dataset) RETURN d.name AS name, d.label AS label",
	},
	{
		question: "List all features.",
		cypher:   "MATCH (f:Feature) RETURN f.name AS feature_name, f.label AS label",
	},
	{
		question: "How many features does WorldBankDataset have?",
		cypher:   "MATCH (d:Dataset {name: 'WorldBankDataset'})-[:hasFeature]->(f:Feature) RETURN COUNT(f) AS feature_count",
	},
	{
		question: "What features does WorldBankDataset have?",
		cypher:   "MATCH (d:Dataset {name: 'WorldBankDataset'})-[:hasFeature]->(f:Feature) RETURN f.name AS feature_name",
	},
	{
		question: "Which features have float data type?",
		cypher:   "MATCH (f:Feature)-[:hasDataType]->(t) WHERE t.name = 'float' RETURN f.name AS feature_name",
	},
	{
		question: "What task specifications are there?",
		cypher:   "MATCH (t:TaskSpecification) RETURN t.name AS task_name, t.label AS label",
	},
}

// BuildPrompt assembles the Cypher generation prompt: role framing, the
// rule list, live schema, few-shot examples, retrieved context, question.
func (d *CypherDialect) BuildPrompt(question, schema, contextBlock string) string {
	var b strings.Builder
	b.WriteString(`You are a Cypher expert for Neo4j. Generate a single, well-formed Cypher query.

IMPORTANT RULES:
1. Use only the labels and relationships that exist in the schema below
2. Node properties include: uri, label, name (use 'name' for readable identifiers)
3. Common relationship patterns from the data:
   - Dataset -[:hasFeature]-> Feature
   - Feature -[:hasDataType]-> DataType
   - TaskSpecification -[:is_specified_input_of]-> Dataset
4. When looking for datasets, use: MATCH (d:Dataset)
5. When looking for features, use: MATCH (f:Feature)
6. When looking for task specifications, use: MATCH (t:TaskSpecification)
7. Use the 'name' property for human-readable names
8. Use parameterized queries when filtering by specific values

SCHEMA INFORMATION:
`)
	b.WriteString(schema)
	b.WriteString("\n\nEXAMPLES:\n")
	for _, ex := range cypherExamples {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", ex.question, ex.cypher)
	}

	block := strings.TrimSpace(contextBlock)
	if block == "" {
		block = "No additional context."
	}
	b.WriteString("\nCONTEXT FROM RETRIEVAL:\n")
	b.WriteString(block)

	fmt.Fprintf(&b, "\n\nQUESTION: %s\n\nGenerate ONLY the Cypher query, no explanations:\n", question)
	return b.String()
}

var cypherPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)` + "```cypher" + `\s*(.*?)\s*` + "```"),
	regexp.MustCompile(`(?is)` + "```" + `\s*(MATCH.*?)\s*` + "```"),
	regexp.MustCompile(`(?im)(MATCH.*?)$`),
	regexp.MustCompile(`(?im)(CREATE.*?)$`),
	regexp.MustCompile(`(?im)(RETURN.*?)$`),
}

// Extract pulls a Cypher query out of the model response, preferring
// fenced blocks over bare statement lines. A non-empty response always
// yields something: the trimmed response itself is the last resort.
func (d *CypherDialect) Extract(response string) (string, bool) {
	for _, pat := range cypherPatterns {
		if m := pat.FindStringSubmatch(response); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Repair strips leftover fences and trailing semicolons and collapses the
// query onto one line.
func (d *CypherDialect) Repair(query string) string {
	query = strings.TrimSpace(query)
	query = strings.TrimPrefix(query, "```cypher")
	query = strings.TrimPrefix(query, "```")
	query = strings.TrimSuffix(query, "```")
	query = whitespaceRun.ReplaceAllString(strings.TrimSpace(query), " ")
	query = strings.TrimSuffix(query, ";")
	return strings.TrimSpace(query)
}

func (d *CypherDialect) Fallback() string {
	return "MATCH (n) RETURN count(n) AS total_nodes"
}
