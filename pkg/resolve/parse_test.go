package resolve

import "testing"

func TestParsePlotRoadFromText(t *testing.T) {
	tests := []struct {
		text string
		plot string
		road string
	}{
		{"show the map of plot 30 road 15", "30", "15"},
		{"map 30/14", "30", "14"},
		{"map for plot 42 on road 7", "42", "7"},
		{"note summary for 12 9", "12", "9"},
		{"plot 30", "30", ""},
		{"road 14 please", "", "14"},
		{"show me the map", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		plot, road := ParsePlotRoadFromText(tt.text)
		if plot != tt.plot || road != tt.road {
			t.Errorf("ParsePlotRoadFromText(%q) = %q/%q, want %q/%q",
				tt.text, plot, road, tt.plot, tt.road)
		}
	}
}
