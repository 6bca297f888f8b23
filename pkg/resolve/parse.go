package resolve

import (
	"regexp"
	"strings"
)

var (
	plotWordPattern = regexp.MustCompile(`plot\s+(\d{1,4})`)
	roadWordPattern = regexp.MustCompile(`road\s+(\d{1,4})`)
	barePairPattern = regexp.MustCompile(`\b(\d{1,4})\s*[/ ]\s*(\d{1,4})\b`)
)

// ParsePlotRoadFromText pulls (plot, road) out of free text such as
// "show the map of plot 30 road 15" or "map 30/14". Either value may
// come back empty when it cannot be found.
func ParsePlotRoadFromText(text string) (plot, road string) {
	if text == "" {
		return "", ""
	}
	s := strings.ToLower(text)

	if m := plotWordPattern.FindStringSubmatch(s); m != nil {
		plot = m[1]
	}
	if m := roadWordPattern.FindStringSubmatch(s); m != nil {
		road = m[1]
	}

	// A bare "30/14" or "30 14" pair fills whichever side is missing.
	if plot == "" || road == "" {
		if m := barePairPattern.FindStringSubmatch(s); m != nil {
			if plot == "" {
				plot = m[1]
			}
			if road == "" {
				road = m[2]
			}
		}
	}
	return plot, road
}
