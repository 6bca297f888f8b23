package chat

import (
	"regexp"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// mapPairPattern catches "map 30/14" style requests that name neither
// plot nor road explicitly.
var mapPairPattern = regexp.MustCompile(`\bmap\s+(\d{1,4})\s*[/ ]\s*(\d{1,4})\b`)

const noteTriggerThreshold = 80

// noteTriggerSubstrings are cheap exact checks covering the common
// spellings before fuzzy matching kicks in.
var noteTriggerSubstrings = []string{
	"note summary",
	"note summar",
	"note summery",
}

var noteTriggerCandidates = []string{
	"note summary",
	"generate note summary",
	"generate property note summary",
	"create note summary",
	"property note summary",
	"note summar",
	"note summery",
	"generate not summary",
}

// isMapTrigger detects "show the map ..." style questions: the message
// must contain "map" plus either a plot/road hint or a bare pair.
func isMapTrigger(text string) bool {
	if text == "" {
		return false
	}
	base := strings.ToLower(text)

	if !strings.Contains(base, "map") {
		return false
	}
	if strings.Contains(base, "plot") || strings.Contains(base, "road") {
		return true
	}
	return mapPairPattern.MatchString(base)
}

// isNoteSummaryTrigger fuzzy-detects "note summary" requests,
// tolerating spellings like "note summery" and "generate not summary".
func isNoteSummaryTrigger(text string) bool {
	if text == "" {
		return false
	}
	base := strings.TrimSpace(strings.ToLower(text))

	for _, s := range noteTriggerSubstrings {
		if strings.Contains(base, s) {
			return true
		}
	}
	for _, phrase := range noteTriggerCandidates {
		if fuzzy.PartialRatio(base, phrase) >= noteTriggerThreshold {
			return true
		}
	}
	return false
}
