package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"label":"property_talk","reason":"asks about a plot"}`,
			want:  `{"label":"property_talk","reason":"asks about a plot"}`,
		},
		{
			name:  "fenced object",
			input: "```json\n{\"plot_no\": \"30\"}\n```",
			want:  `{"plot_no": "30"}`,
		},
		{
			name:  "prose around object",
			input: `Here is the result: {"a": 1} hope that helps`,
			want:  `{"a": 1}`,
		},
		{
			name:  "think tags stripped",
			input: "<think>the user wants owners</think>{\"intent\":\"current_owner\"}",
			want:  `{"intent":"current_owner"}`,
		},
		{
			name:  "nested braces in strings",
			input: `{"sql":"SELECT '{' FROM properties"}`,
			want:  `{"sql":"SELECT '{' FROM properties"}`,
		},
		{
			name:  "array",
			input: `["a","b"]`,
			want:  `["a","b"]`,
		},
		{
			name:    "no json",
			input:   "I cannot answer that.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type classification struct {
		Label  string `json:"label"`
		Reason string `json:"reason"`
	}

	got, err := ParseJSONResponse[classification]("```json\n{\"label\":\"small_talk\",\"reason\":\"greeting\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Label != "small_talk" || got.Reason != "greeting" {
		t.Errorf("got %+v", got)
	}

	if _, err := ParseJSONResponse[classification]("no json here"); err == nil {
		t.Error("expected error for non-JSON input")
	}
}
