package notes

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeRunner struct {
	rows map[string][]map[string]any
}

func (f *fakeRunner) RunSelect(_ context.Context, sqlText string, _ bool) ([]map[string]any, error) {
	for key, rows := range f.rows {
		if strings.Contains(sqlText, key) {
			return rows, nil
		}
	}
	return nil, nil
}

func TestNoteTitle(t *testing.T) {
	tests := []struct {
		pra  string
		want string
	}{
		{"28|6|Punjabi Bagh East", "Plot no. 28 Road no. 6 East Punjabi Bagh"},
		{"30|14|Punjabi Bagh West", "Plot no. 30 Road no. 14 West Punjabi Bagh"},
		{"5|East Avenue Road|Punjabi Bagh East", "Plot no. 5 Road no. East Avenue Road East Punjabi Bagh"},
		{"28|6|Somewhere Else", "Plot no. 28 Road no. 6 Somewhere Else"},
		{"weird-pra", "weird-pra"},
	}
	for _, tt := range tests {
		if got := NoteTitle(tt.pra); got != tt.want {
			t.Errorf("NoteTitle(%q) = %q, want %q", tt.pra, got, tt.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	if got := cleanText("a\tb\nc"); got != "a b c" {
		t.Errorf("cleanText = %q", got)
	}
	if got := cleanText("नोट note"); !strings.HasSuffix(got, " note") {
		t.Errorf("non-latin runes should be replaced, got %q", got)
	}
}

func TestGeneratePropertyNote(t *testing.T) {
	runner := &fakeRunner{rows: map[string][]map[string]any{
		"current_owners": {
			{"owner_name": "Davinder Sodhi", "buyer_portion": "50.00"},
			{"owner_name": "Abha Khanna", "buyer_portion": 50.0},
		},
		"ownership_records": {
			{
				"buyer_name":    "Davinder Sodhi",
				"seller_name":   "Usha Rani",
				"signing_date":  "26/12/2003",
				"buyer_portion": "50.00",
				"transfer_type": "sale",
				"notes":         "part of a larger family settlement spanning several documents",
			},
		},
		"initial_plot_size": {{"initial_plot_size": "200"}},
		"share_certificates": {
			{"certificate_number": "SC-12", "member_name": "Davinder Sodhi", "date_of_transfer": "01/01/2004"},
		},
		"club_memberships": nil,
	}}

	dir := t.TempDir()
	g := NewGenerator(runner, dir, zap.NewNop())

	path, owners, history, err := g.GeneratePropertyNote(context.Background(), "30|14|Punjabi Bagh West")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(owners) != 2 || len(history) != 1 {
		t.Errorf("owners = %d, history = %d", len(owners), len(history))
	}

	wantName := "property_note_30_14_Punjabi_Bagh_West.pdf"
	if filepath.Base(path) != wantName {
		t.Errorf("path = %q, want base %q", path, wantName)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("empty pdf written")
	}
}

func TestGeneratePropertyNoteEmptyProperty(t *testing.T) {
	g := NewGenerator(&fakeRunner{}, t.TempDir(), zap.NewNop())

	path, owners, history, err := g.GeneratePropertyNote(context.Background(), "99|99|Punjabi Bagh East")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(owners) != 0 || len(history) != 0 {
		t.Error("expected no rows")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("pdf should still be written: %v", err)
	}
}
