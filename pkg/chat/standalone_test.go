package chat

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/llm"
	"github.com/pbchs/registry-assistant/pkg/memory"
	"github.com/pbchs/registry-assistant/pkg/models"
)

func TestMentionsPriorContext(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"who owns it now", true},
		{"what about this property", true},
		{"same one please", true},
		{"as above", true},
		{"who owns plot 30 road 14", false},
		{"ownership history of 28|6|Punjabi Bagh East", false},
	}
	for _, tt := range tests {
		if got := mentionsPriorContext(tt.query); got != tt.want {
			t.Errorf("mentionsPriorContext(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestHasExplicitPropertyInfo(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		entities *models.EntityBundle
		want     bool
	}{
		{"pra literal", "history of 28|6|punjabi bagh east", nil, true},
		{"plot number", "who owns plot 30", nil, true},
		{"road number", "houses on road 14", nil, true},
		{"file reference", "what is in file no A-12", nil, true},
		{"entities pra", "who owns it", &models.EntityBundle{PRA: "28|6|Punjabi Bagh East"}, true},
		{"entities area", "who owns it", &models.EntityBundle{Area: "Punjabi Bagh West"}, true},
		{"vague", "who owns it now", nil, false},
		{"person only", "date of birth of Neelam", &models.EntityBundle{Person: []string{"Neelam"}}, false},
	}
	for _, tt := range tests {
		if got := hasExplicitPropertyInfo(tt.query, tt.entities); got != tt.want {
			t.Errorf("%s: hasExplicitPropertyInfo(%q) = %v, want %v", tt.name, tt.query, got, tt.want)
		}
	}
}

func TestExtractLastPropertyFromHistory(t *testing.T) {
	history := []models.Turn{
		{Role: models.RoleUser, Content: "who owns plot 5 on East Avenue Road"},
		{Role: models.RoleAssistant, Content: "The current owner of 30|14|Punjabi Bagh West is Davinder Sodhi."},
	}

	prop := extractLastPropertyFromHistory(history)
	if prop == nil {
		t.Fatal("expected a property from history")
	}
	if prop.PRA != "30|14|Punjabi Bagh West" || prop.PlotNo != "30" || prop.RoadNo != "14" {
		t.Errorf("unexpected property: %+v", prop)
	}

	prop = extractLastPropertyFromHistory([]models.Turn{
		{Role: models.RoleUser, Content: "owners of plot 28 road 6 in Punjabi Bagh East"},
	})
	if prop == nil || prop.PlotNo != "28" || prop.RoadNo != "6" || prop.Area != "Punjabi Bagh East" {
		t.Errorf("plot/road extraction failed: %+v", prop)
	}

	prop = extractLastPropertyFromHistory([]models.Turn{
		{Role: models.RoleUser, Content: "tell me about plot 5 on East Avenue Road"},
	})
	if prop == nil || prop.PlotNo != "5" || prop.RoadNo != "East Avenue Road" {
		t.Errorf("named road extraction failed: %+v", prop)
	}

	if prop := extractLastPropertyFromHistory(nil); prop != nil {
		t.Errorf("empty history should yield nil, got %+v", prop)
	}
}

func TestResolveVaguePropertyWithHistory(t *testing.T) {
	history := []models.Turn{
		{Role: models.RoleAssistant, Content: "The current owner of 30|14|Punjabi Bagh West is Davinder Sodhi."},
	}

	got := resolveVaguePropertyWithHistory("who were the previous owners of this plot", history, nil)
	if !strings.Contains(got, "property 30|14|Punjabi Bagh West") {
		t.Errorf("vague reference not resolved: %q", got)
	}

	// Explicit identifiers stay untouched.
	explicit := "who were the previous owners of plot 28 road 6"
	if got := resolveVaguePropertyWithHistory(explicit, history, nil); got != explicit {
		t.Errorf("explicit query was rewritten: %q", got)
	}

	// No vague phrase, nothing happens even for vague-ish queries.
	plain := "who were the previous owners"
	if got := resolveVaguePropertyWithHistory(plain, history, nil); got != plain {
		t.Errorf("plain query was rewritten: %q", got)
	}
}

func TestInjectFocusIfNeeded(t *testing.T) {
	focus := memory.NewFocus()
	focus.Property = &memory.PropertyRef{PRA: "30|14|Punjabi Bagh West"}
	focus.Person = "Davinder Sodhi"

	got := injectFocusIfNeeded("when was it sold?", focus, nil)
	if !strings.Contains(got, "(for property PRA 30|14|Punjabi Bagh West)") {
		t.Errorf("property focus not injected: %q", got)
	}

	got = injectFocusIfNeeded("what is his phone number?", focus, nil)
	if !strings.Contains(got, "(for person Davinder Sodhi)") {
		t.Errorf("person focus not injected: %q", got)
	}

	// Explicit property info suppresses injection.
	explicit := "when was plot 30 sold?"
	if got := injectFocusIfNeeded(explicit, focus, nil); got != explicit {
		t.Errorf("explicit query got a suffix: %q", got)
	}

	// No matching pronouns, no injection.
	neutral := "how many owners are recorded?"
	if got := injectFocusIfNeeded(neutral, focus, nil); got != neutral {
		t.Errorf("neutral query got a suffix: %q", got)
	}
}

func TestNormalizePropertyWordsToPlot(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"how many properties are there", "how many plots are there"},
		{"the Property on road 14", "the Plot on road 14"},
		{"PROPERTIES in the west", "PLOTS in the west"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizePropertyWordsToPlot(tt.in); got != tt.want {
			t.Errorf("normalizePropertyWordsToPlot(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildStandaloneQuestionGuardrails(t *testing.T) {
	gen := llm.NewMockGenerator()

	// The model invents a property from history even though the user
	// referenced nothing: the guardrail falls back to the normalized
	// query.
	gen.GenerateJSONFunc = func(_ context.Context, _, _ string, _ float64) (string, error) {
		return `{"language":"english","normalized_query":"how many plots are there","standalone_question":"how many plots are on plot 30 road 14"}`, nil
	}

	result := buildStandaloneQuestion(context.Background(), gen,
		"how many properties are there", nil, &models.EntityBundle{}, memory.NewFocus(), zap.NewNop())
	if result.StandaloneQuestion != "how many plots are there" {
		t.Errorf("invented identifiers survived: %q", result.StandaloneQuestion)
	}

	// A model rewrite that drops the explicit identifiers from the
	// patched query is discarded in favor of the patched query.
	gen.GenerateJSONFunc = func(_ context.Context, _, _ string, _ float64) (string, error) {
		return `{"language":"english","normalized_query":"who owns this plot","standalone_question":"who owns this plot"}`, nil
	}
	result = buildStandaloneQuestion(context.Background(), gen,
		"who owns plot 30 road 14", nil, &models.EntityBundle{}, memory.NewFocus(), zap.NewNop())
	if result.StandaloneQuestion != "who owns plot 30 road 14" {
		t.Errorf("dropped identifiers not restored: %q", result.StandaloneQuestion)
	}

	// LLM failure falls back to the patched query.
	gen.GenerateJSONFunc = func(_ context.Context, _, _ string, _ float64) (string, error) {
		return "", context.DeadlineExceeded
	}
	result = buildStandaloneQuestion(context.Background(), gen,
		"who owns plot 30 road 14", nil, &models.EntityBundle{}, memory.NewFocus(), zap.NewNop())
	if result.StandaloneQuestion != "who owns plot 30 road 14" {
		t.Errorf("fallback failed: %q", result.StandaloneQuestion)
	}
}
