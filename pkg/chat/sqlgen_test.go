package chat

import (
	"strings"
	"testing"

	"github.com/pbchs/registry-assistant/pkg/models"
	"github.com/pbchs/registry-assistant/pkg/prompts"
	"github.com/pbchs/registry-assistant/pkg/retrieval"
)

func TestCleanSQL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"fenced",
			"```sql\nSELECT 1;\n```",
			"SELECT 1;",
		},
		{
			"multiple statements",
			"SELECT 1; SELECT 2;",
			"SELECT 1;",
		},
		{
			"missing semicolon",
			"SELECT name FROM persons",
			"SELECT name FROM persons;",
		},
		{
			"prose and fences",
			"Here you go:\n```\nSELECT pra FROM properties LIMIT 5;\n```",
			"Here you go:\n\nSELECT pra FROM properties LIMIT 5;",
		},
	}
	for _, tt := range tests {
		if got := CleanSQL(tt.in); got != tt.want {
			t.Errorf("%s: CleanSQL = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBuildSQLPrompt(t *testing.T) {
	entities := &models.EntityBundle{
		PlotNo: "30",
		RoadNo: "14",
		Person: []string{"Davinder Sodhi"},
		Intent: models.IntentCurrentOwner,
	}
	ex := &prompts.SQLExamples[0]
	matches := []retrieval.Match{
		{Document: retrieval.Document{Example: ex}, Similarity: 0.9},
	}

	prompt := buildSQLPrompt("who owns plot 30 road 14", entities, matches)

	for _, want := range []string{
		"User standalone question:\nwho owns plot 30 road 14",
		"- plot_no: 30",
		"- road_no: 14",
		"- person: Davinder Sodhi",
		"Example 1 (tables:",
		ex.Question,
		"Table properties:",
		"Return ONLY the final PostgreSQL SELECT statement, ending with a semicolon.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildSQLPromptNoExamples(t *testing.T) {
	prompt := buildSQLPrompt("how many plots are there", &models.EntityBundle{}, nil)
	if !strings.Contains(prompt, "Relevant SQL examples:\n(none)") {
		t.Error("empty examples should render as (none)")
	}
}

func TestRenderEntityHintsSkipsEmpty(t *testing.T) {
	hints := renderEntityHints(&models.EntityBundle{PRA: "28|6|Punjabi Bagh East"})
	if !strings.Contains(hints, "- pra: 28|6|Punjabi Bagh East") {
		t.Errorf("missing pra hint: %q", hints)
	}
	if strings.Contains(hints, "plot_no") || strings.Contains(hints, "person") {
		t.Errorf("empty fields leaked into hints: %q", hints)
	}
}
