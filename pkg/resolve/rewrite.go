package resolve

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/pbchs/registry-assistant/pkg/models"
)

var (
	slashPairPattern = regexp.MustCompile(`\b(\d{1,4})\s*/\s*(\d{1,4})\b`)
	spacePairPattern = regexp.MustCompile(`\b(\d{1,4})\s+(\d{1,4})\b`)
	baghAreaPattern  = regexp.MustCompile(`(?i)((?:[A-Za-z]*?punjab[A-Za-z]*\s+)?bagh\s+(east|west))`)

	// Trailing capitalized phrase, the usual position of a person name
	// in questions like "what is the date of birth of Chitranjn?".
	trailingNamePattern = regexp.MustCompile(`([A-Z][a-zA-Z']*(?:\s+[A-Z][a-zA-Z']*)*)[^\w]*?$`)
)

const baghAreaMatchThreshold = 70

// NormalizePlotRoadPatterns rewrites bare "30/14" or "30 14" pairs into
// "plot number 30 road 14" and records both numbers on the entity
// bundle. Only the first pair is rewritten; a slash pair wins over a
// space pair.
func NormalizePlotRoadPatterns(question string, entities *models.EntityBundle) string {
	if question == "" {
		return question
	}

	if loc := slashPairPattern.FindStringSubmatchIndex(question); loc != nil {
		return rewritePair(question, loc, entities)
	}
	if loc := spacePairPattern.FindStringSubmatchIndex(question); loc != nil {
		return rewritePair(question, loc, entities)
	}
	return question
}

func rewritePair(question string, loc []int, entities *models.EntityBundle) string {
	plot := question[loc[2]:loc[3]]
	road := question[loc[4]:loc[5]]
	replacement := fmt.Sprintf("plot number %s road %s", plot, road)
	if entities != nil {
		entities.PlotNo = plot
		entities.RoadNo = road
	}
	return question[:loc[0]] + replacement + question[loc[1]:]
}

// NormalizePunjabiBagh canonicalizes spellings like "Punjabhi Bagh east"
// to "Punjabi Bagh East"/"Punjabi Bagh West". The match is confirmed
// with a fuzzy score so that unrelated "...bagh east..." phrases in a
// longer word are left alone.
func NormalizePunjabiBagh(question string) string {
	if question == "" {
		return question
	}

	loc := baghAreaPattern.FindStringSubmatchIndex(question)
	if loc == nil {
		return question
	}

	span := question[loc[2]:loc[3]]
	spanLower := strings.ToLower(span)

	var canonical string
	switch {
	case strings.Contains(spanLower, "east"):
		canonical = "Punjabi Bagh East"
	case strings.Contains(spanLower, "west"):
		canonical = "Punjabi Bagh West"
	default:
		return question
	}

	if fuzzy.WRatio(spanLower, strings.ToLower(canonical)) < baghAreaMatchThreshold {
		return question
	}
	return question[:loc[2]] + canonical + question[loc[3]:]
}

// ApplyFuzzyPlotRoad snaps the extracted plot and road numbers to their
// canonical database values and reflects the change back into the
// question text.
func (r *Resolver) ApplyFuzzyPlotRoad(ctx context.Context, question string, entities *models.EntityBundle) string {
	if question == "" || entities == nil {
		return question
	}

	if entities.PlotNo != "" {
		matched := r.ResolveColumnValue(ctx, "plot_no", entities.PlotNo, ColumnMatchThreshold)
		if matched != "" && matched != entities.PlotNo {
			question = replaceWord(question, entities.PlotNo, matched)
			entities.PlotNo = matched
		}
	}
	if entities.RoadNo != "" {
		matched := r.ResolveColumnValue(ctx, "road_no", entities.RoadNo, ColumnMatchThreshold)
		if matched != "" && matched != entities.RoadNo {
			question = replaceWord(question, entities.RoadNo, matched)
			entities.RoadNo = matched
		}
	}
	return question
}

// ApplyFuzzyPersonNames canonicalizes extracted person names and makes
// the question text use them. Surname-only questions are left alone:
// snapping "Kohli" to a random full name would break the search.
func (r *Resolver) ApplyFuzzyPersonNames(ctx context.Context, question string, entities *models.EntityBundle) string {
	if question == "" || entities == nil || len(entities.Person) == 0 {
		return question
	}

	lower := strings.ToLower(question)
	if strings.Contains(lower, "last name") || strings.Contains(lower, "surname") {
		return question
	}

	for i, raw := range entities.Person {
		if raw == "" {
			continue
		}
		canonical := r.ResolvePersonName(ctx, raw, PersonMatchThreshold)
		if canonical == "" {
			canonical = raw
		}
		question = ReplaceNameInQuestion(question, raw, canonical)
		entities.Person[i] = canonical
	}
	return question
}

// ReplaceNameInQuestion makes the question text use the canonical
// person name. It tries, in order: the name already present, a direct
// or case-insensitive substitution of the raw spelling, the trailing
// capitalized phrase, and finally an appended parenthesis.
func ReplaceNameInQuestion(text, rawName, canonicalName string) string {
	if text == "" || canonicalName == "" {
		return text
	}
	if strings.Contains(text, canonicalName) {
		return text
	}

	if rawName != "" {
		if strings.Contains(text, rawName) {
			return strings.Replace(text, rawName, canonicalName, 1)
		}
		ci := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(rawName))
		if ci.MatchString(text) {
			return ci.ReplaceAllString(text, canonicalName)
		}
	}

	if loc := trailingNamePattern.FindStringSubmatchIndex(text); loc != nil {
		return text[:loc[2]] + canonicalName + text[loc[3]:]
	}
	return fmt.Sprintf("%s (%s)", text, canonicalName)
}

// PostprocessStandaloneQuestion runs the full rewrite chain on a
// standalone question: numeric pair expansion, area canonicalization,
// then database-backed fuzzy snapping of plot, road and person values.
func (r *Resolver) PostprocessStandaloneQuestion(ctx context.Context, question string, entities *models.EntityBundle) string {
	if question == "" {
		return question
	}

	text := NormalizePlotRoadPatterns(question, entities)
	text = NormalizePunjabiBagh(text)
	text = r.ApplyFuzzyPlotRoad(ctx, text, entities)
	text = r.ApplyFuzzyPersonNames(ctx, text, entities)
	return text
}

func replaceWord(text, old, repl string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(old) + `\b`)
	return re.ReplaceAllString(text, repl)
}
