package resolve

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/models"
)

type fakeRunner struct {
	rows    map[string][]map[string]any
	queries []string
	err     error
}

func (f *fakeRunner) RunSelect(_ context.Context, sqlText string, _ bool) ([]map[string]any, error) {
	f.queries = append(f.queries, sqlText)
	if f.err != nil {
		return nil, f.err
	}
	for key, rows := range f.rows {
		if strings.Contains(sqlText, key) {
			return rows, nil
		}
	}
	return nil, nil
}

func valRows(values ...string) []map[string]any {
	rows := make([]map[string]any, len(values))
	for i, v := range values {
		rows[i] = map[string]any{"val": v}
	}
	return rows
}

func TestNormalizePlotRoadPatterns(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
		wantPlot string
		wantRoad string
	}{
		{
			name:     "slash pair",
			question: "who owns 30/14",
			want:     "who owns plot number 30 road 14",
			wantPlot: "30",
			wantRoad: "14",
		},
		{
			name:     "space pair",
			question: "ownership history of 30 14",
			want:     "ownership history of plot number 30 road 14",
			wantPlot: "30",
			wantRoad: "14",
		},
		{
			name:     "slash wins over space",
			question: "map 5/7 and 9 11",
			want:     "map plot number 5 road 7 and 9 11",
			wantPlot: "5",
			wantRoad: "7",
		},
		{
			name:     "no pair",
			question: "who owns plot 30 on road 14",
			want:     "who owns plot 30 on road 14",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entities models.EntityBundle
			got := NormalizePlotRoadPatterns(tt.question, &entities)
			if got != tt.want {
				t.Errorf("question = %q, want %q", got, tt.want)
			}
			if entities.PlotNo != tt.wantPlot || entities.RoadNo != tt.wantRoad {
				t.Errorf("entities = %q/%q, want %q/%q",
					entities.PlotNo, entities.RoadNo, tt.wantPlot, tt.wantRoad)
			}
		})
	}
}

func TestNormalizePunjabiBagh(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"properties in punjabhi bagh east", "properties in Punjabi Bagh East"},
		{"plots in Bagh west", "plots in Punjabi Bagh West"},
		{"properties in Punjabi Bagh East", "properties in Punjabi Bagh East"},
		{"how many plots are there", "how many plots are there"},
	}
	for _, tt := range tests {
		if got := NormalizePunjabiBagh(tt.in); got != tt.want {
			t.Errorf("NormalizePunjabiBagh(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReplaceNameInQuestion(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		raw       string
		canonical string
		want      string
	}{
		{
			name:      "canonical already present",
			text:      "contact details of Davinder Sodhi",
			raw:       "davinder",
			canonical: "Davinder Sodhi",
			want:      "contact details of Davinder Sodhi",
		},
		{
			name:      "raw substring replaced",
			text:      "what does davinder sodh do",
			raw:       "davinder sodh",
			canonical: "Davinder Sodhi",
			want:      "what does Davinder Sodhi do",
		},
		{
			name:      "case-insensitive replacement",
			text:      "what does DAVINDER SODH do",
			raw:       "davinder sodh",
			canonical: "Davinder Sodhi",
			want:      "what does Davinder Sodhi do",
		},
		{
			name:      "trailing capitalized phrase",
			text:      "What is the date of birth of Chitranjn?",
			raw:       "",
			canonical: "Chitranjan Pal Singh",
			want:      "What is the date of birth of Chitranjan Pal Singh?",
		},
		{
			name:      "fallback parenthesis",
			text:      "who is the owner",
			raw:       "",
			canonical: "Davinder Sodhi",
			want:      "who is the owner (Davinder Sodhi)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReplaceNameInQuestion(tt.text, tt.raw, tt.canonical); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveColumnValue(t *testing.T) {
	runner := &fakeRunner{rows: map[string][]map[string]any{
		"plot_no": valRows("30", "31", "30-A"),
		"road_no": valRows("14", "East Avenue Road"),
	}}
	r := NewResolver(runner, zap.NewNop())
	ctx := context.Background()

	if got := r.ResolveColumnValue(ctx, "plot_no", "30", ColumnMatchThreshold); got != "30" {
		t.Errorf("exact value changed to %q", got)
	}
	if got := r.ResolveColumnValue(ctx, "road_no", "east avenue", ColumnMatchThreshold); got != "East Avenue Road" {
		t.Errorf("fuzzy road = %q, want canonical", got)
	}
	if got := r.ResolveColumnValue(ctx, "street_name", "x", ColumnMatchThreshold); got != "x" {
		t.Error("non-address column should pass through")
	}
	if got := r.ResolveColumnValue(ctx, "plot_no", "  ", ColumnMatchThreshold); got != "  " {
		t.Error("blank input should pass through")
	}
}

func TestResolveColumnValueLookupFailure(t *testing.T) {
	runner := &fakeRunner{err: context.DeadlineExceeded}
	r := NewResolver(runner, zap.NewNop())

	got := r.ResolveColumnValue(context.Background(), "plot_no", "30", ColumnMatchThreshold)
	if got != "30" {
		t.Errorf("lookup failure should return input, got %q", got)
	}
}

func TestResolvePersonName(t *testing.T) {
	runner := &fakeRunner{rows: map[string][]map[string]any{
		"persons": valRows("Davinder Sodhi", "Chitranjan Pal Singh", "Neelam Berry"),
	}}
	r := NewResolver(runner, zap.NewNop())

	if got := r.ResolvePersonName(context.Background(), "davinder sodhi", PersonMatchThreshold); got != "Davinder Sodhi" {
		t.Errorf("person = %q", got)
	}
	// A totally unrelated name stays as typed.
	if got := r.ResolvePersonName(context.Background(), "Zzyx Qqq", PersonMatchThreshold); got != "Zzyx Qqq" {
		t.Errorf("unrelated name snapped to %q", got)
	}
}

func TestApplyFuzzyPersonNamesSkipsSurnameQueries(t *testing.T) {
	runner := &fakeRunner{rows: map[string][]map[string]any{
		"persons": valRows("Rakesh Kohli"),
	}}
	r := NewResolver(runner, zap.NewNop())

	entities := &models.EntityBundle{Person: []string{"Kohli"}}
	got := r.ApplyFuzzyPersonNames(context.Background(),
		"all properties where owner's last name is Kohli", entities)

	if got != "all properties where owner's last name is Kohli" {
		t.Errorf("surname query rewritten: %q", got)
	}
	if entities.Person[0] != "Kohli" {
		t.Errorf("surname entity rewritten: %q", entities.Person[0])
	}
	if len(runner.queries) != 0 {
		t.Error("no lookup expected for surname queries")
	}
}

func TestPostprocessStandaloneQuestion(t *testing.T) {
	runner := &fakeRunner{rows: map[string][]map[string]any{
		"property_addresses": valRows("30", "14"),
		"persons":            valRows("Davinder Sodhi"),
	}}
	r := NewResolver(runner, zap.NewNop())

	entities := &models.EntityBundle{}
	got := r.PostprocessStandaloneQuestion(context.Background(),
		"ownership history of 30/14 in punjabhi bagh east", entities)

	want := "ownership history of plot number 30 road 14 in Punjabi Bagh East"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if entities.PlotNo != "30" || entities.RoadNo != "14" {
		t.Errorf("entities = %q/%q", entities.PlotNo, entities.RoadNo)
	}
}
