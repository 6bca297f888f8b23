package chat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pbchs/registry-assistant/pkg/models"
	"github.com/pbchs/registry-assistant/pkg/prompts"
	"github.com/pbchs/registry-assistant/pkg/retrieval"
)

var sqlFencePattern = regexp.MustCompile("(?i)```sql")

// CleanSQL strips markdown fences and trims the response down to the
// first statement, guaranteeing a trailing semicolon.
func CleanSQL(response string) string {
	sqlText := sqlFencePattern.ReplaceAllString(response, "")
	sqlText = strings.ReplaceAll(sqlText, "```", "")
	sqlText = strings.TrimSpace(sqlText)

	if idx := strings.Index(sqlText, ";"); idx >= 0 {
		sqlText = sqlText[:idx+1]
	}
	if !strings.HasSuffix(sqlText, ";") {
		sqlText += ";"
	}
	return strings.TrimSpace(sqlText)
}

// buildSQLPrompt assembles the generation prompt: the standalone
// question, entity hints, the full schema reference and the retrieved
// worked examples.
func buildSQLPrompt(standaloneQuestion string, entities *models.EntityBundle, exampleMatches []retrieval.Match) string {
	var exampleBlocks []string
	for i, m := range exampleMatches {
		if m.Example == nil {
			continue
		}
		ex := m.Example
		lines := []string{
			fmt.Sprintf("Example %d (tables: %s):", i+1, strings.Join(ex.Tables, ", ")),
			"Question: " + ex.Question,
			"SQL:",
			ex.SQL,
		}
		exampleBlocks = append(exampleBlocks, strings.Join(lines, "\n"))
	}

	return fmt.Sprintf(`You will write a PostgreSQL SELECT query for the Property Ownership database.

User standalone question:
%s

Extracted entities / hints:
%s

Relevant schema snippets:
%s

Relevant SQL examples:
%s

Return ONLY the final PostgreSQL SELECT statement, ending with a semicolon.`,
		standaloneQuestion,
		orNone(renderEntityHints(entities)),
		orNone(prompts.RenderSchemas()),
		orNone(strings.Join(exampleBlocks, "\n\n")))
}

// renderEntityHints lists the non-empty entity fields as "- key: value"
// lines.
func renderEntityHints(entities *models.EntityBundle) string {
	if entities == nil {
		return ""
	}

	var lines []string
	add := func(key, value string) {
		if value != "" {
			lines = append(lines, "- "+key+": "+value)
		}
	}
	add("pra", entities.PRA)
	add("file_name", entities.FileName)
	add("file_no", entities.FileNo)
	add("plot_no", entities.PlotNo)
	add("road_no", entities.RoadNo)
	add("area", entities.Area)
	if len(entities.Person) > 0 {
		add("person", strings.Join(entities.Person, ", "))
	}
	add("year_from", entities.YearFrom)
	add("year_to", entities.YearTo)
	add("intent", entities.Intent)
	return strings.Join(lines, "\n")
}

// validationRepairPrompt is the second-tier repair request used when
// the bounded repair loop itself gave up: the rejection reason is fed
// back with the JSON-column rules restated.
func validationRepairPrompt(sqlText, validationError string) string {
	return fmt.Sprintf(`You previously wrote this PostgreSQL SELECT query:

%s

It FAILED validation with this error:

%s

Rewrite the query so that it:
- Still answers the same question.
- Uses ONLY allowed tables/columns from the provided schema.
- Does NOT use any forbidden or non-existent columns.
- Respects all JSON rules:
* ownership_records.buyer_portion is JSON. Do NOT group by or compare the raw JSON.
    If needed, use (ownership_records.buyer_portion->>0) or
    CAST(ownership_records.buyer_portion->>0 AS numeric).
* sale_deeds.signing_date is JSON/text. To get a DATE use:
    to_date(alias.signing_date->>0, 'DD/MM/YYYY')
    where alias is the table alias (e.g. sd).
* NEVER GROUP BY a raw JSON column; only group by text/number/date expressions.

Return ONLY a single PostgreSQL SELECT statement ending with a semicolon.`, sqlText, validationError)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
