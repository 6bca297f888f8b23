package chat

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/llm"
	"github.com/pbchs/registry-assistant/pkg/memory"
	"github.com/pbchs/registry-assistant/pkg/models"
	"github.com/pbchs/registry-assistant/pkg/prompts"
)

// Pronoun sets deciding which focus suffix may be injected into a
// vague question.
var (
	personPronouns   = wordSet("him", "her", "them", "their", "his", "hers", "he", "she", "they")
	propertyPronouns = wordSet("it", "its", "this", "that", "these", "those", "property", "plot", "file")
)

var (
	priorContextPattern  = regexp.MustCompile(`\b(this|it|its|these|those|above|same|previous|earlier)\b`)
	priorContextPhrases  = regexp.MustCompile(`\b(same one|last one|the above|as above)\b`)
	praLiteralPattern    = regexp.MustCompile(`\b\d+\|\d+\|punjabi bagh (east|west)\b`)
	plotNumberPattern    = regexp.MustCompile(`\bplot\s*\d+\b`)
	roadNumberPattern    = regexp.MustCompile(`\broad\s*\d+\b`)
	fileRefPattern       = regexp.MustCompile(`\bfile\s*(no|number)?\s*[:\-]?\s*\w+\b`)
	vaguePropertyPattern = regexp.MustCompile(`(?i)\b(this|that)\s+(plot|property|file)\b`)
	propertyWordPattern  = regexp.MustCompile(`(?i)\bproperties\b|\bproperty\b`)
	punctPattern         = regexp.MustCompile(`[?.!,]`)

	historyPRAPattern      = regexp.MustCompile(`(?i)(\d+\|\d+\|Punjabi Bagh (?:East|West))`)
	historyPlotRoadPattern = regexp.MustCompile(`(?is)plot\s*(\d+).*?road\s*(\d+)`)
	historyTextRoadPattern = regexp.MustCompile(`(?is)plot\s*(\d+).*?((?:[A-Z][a-z]*\s+)*[A-Z][a-z]*\s+Road)`)
	historyAreaPattern     = regexp.MustCompile(`(?i)Punjabi Bagh\s+(East|West)`)
)

const standaloneSystemPrompt = `You normalize Punjabi Bagh property questions and produce standalone English versions.
You MUST return exactly one JSON object with the keys "language", "normalized_query", and "standalone_question".
If the provided user query already contains any explicit property identifiers (for example a PRA like '28|6|Punjabi Bagh East/West', plot number, road number, file number or name, or an area like 'Punjabi Bagh East/West', including inside parentheses such as '(for property PRA 30|14|Punjabi Bagh East)'), you MUST preserve those identifiers in BOTH normalized_query and standalone_question.
You MUST NOT replace explicit identifiers with vague phrases such as 'this plot', 'this property', or 'that file' in standalone_question.
When history or NER lets you recover a specific property for a vague request, standalone_question must mention that property explicitly, not with pronouns.
If the current user query does NOT contain explicit reference words like 'this', 'it', 'above', 'same', 'previous', do NOT use chat history to infer any plot/road/PRA/file identifiers.
Return only the JSON object, with no extra text.`

// standaloneResult is the rewritten form of one user message.
type standaloneResult struct {
	Language           string `json:"language"`
	NormalizedQuery    string `json:"normalized_query"`
	StandaloneQuestion string `json:"standalone_question"`
}

// historyProperty is the last property reference recovered from chat
// history, used to resolve "this plot" style questions.
type historyProperty struct {
	PRA    string
	PlotNo string
	RoadNo string
	Area   string
}

// buildStandaloneQuestion rewrites the raw message into a
// self-contained English question. Deterministic resolution and focus
// injection run before the model; guardrails after it make sure the
// model neither dropped explicit identifiers nor invented them from
// history.
func buildStandaloneQuestion(
	ctx context.Context,
	generator llm.Generator,
	rawQuery string,
	history []models.Turn,
	entities *models.EntityBundle,
	focus *memory.Focus,
	logger *zap.Logger,
) standaloneResult {
	resolved := resolveVaguePropertyWithHistory(rawQuery, history, entities)
	patched := injectFocusIfNeeded(resolved, focus, entities)

	// History goes into the prompt only when the user explicitly
	// refers to prior context.
	useHistory := mentionsPriorContext(rawQuery)
	historyForPrompt := history
	if !useHistory {
		historyForPrompt = nil
	} else if len(historyForPrompt) > 6 {
		historyForPrompt = historyForPrompt[len(historyForPrompt)-6:]
	}

	nerJSON, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		nerJSON = []byte("{}")
	}

	userPrompt := prompts.FormatStandalonePrompt(
		renderHistoryJSON(historyForPrompt), patched, string(nerJSON))

	result := standaloneResult{
		Language:           "english",
		NormalizedQuery:    patched,
		StandaloneQuestion: patched,
	}

	response, genErr := generator.GenerateJSON(ctx, standaloneSystemPrompt, userPrompt, 0.1)
	if genErr != nil {
		logger.Warn("standalone rewrite failed, using patched query", zap.Error(genErr))
	} else if parsed, parseErr := llm.ParseJSONResponse[standaloneResult](response); parseErr != nil {
		logger.Warn("standalone rewrite unparseable, using patched query", zap.Error(parseErr))
	} else {
		if parsed.Language != "" {
			result.Language = parsed.Language
		}
		if parsed.NormalizedQuery != "" {
			result.NormalizedQuery = parsed.NormalizedQuery
		}
		if parsed.StandaloneQuestion != "" {
			result.StandaloneQuestion = parsed.StandaloneQuestion
			// The model dropping explicit property info our patched
			// query had means the rewrite lost the anchor.
			if !hasExplicitPropertyInfo(parsed.StandaloneQuestion, entities) &&
				hasExplicitPropertyInfo(patched, entities) {
				result.StandaloneQuestion = patched
			}
		}
	}

	result.NormalizedQuery = normalizePropertyWordsToPlot(result.NormalizedQuery)
	result.StandaloneQuestion = normalizePropertyWordsToPlot(result.StandaloneQuestion)

	// Without an explicit reference to prior context the model must
	// not have smuggled identifiers in from history.
	if !useHistory && !hasExplicitPropertyInfo(rawQuery, entities) {
		if hasExplicitPropertyInfo(result.StandaloneQuestion, nil) {
			result.StandaloneQuestion = result.NormalizedQuery
		}
	}
	return result
}

// mentionsPriorContext reports whether the user explicitly refers to
// earlier context. When false, plot/road/PRA must not be borrowed from
// history.
func mentionsPriorContext(userQuery string) bool {
	q := strings.ToLower(userQuery)
	return priorContextPattern.MatchString(q) || priorContextPhrases.MatchString(q)
}

// hasExplicitPropertyInfo reports whether the message (or its extracted
// entities) already pins down a property.
func hasExplicitPropertyInfo(userQuery string, entities *models.EntityBundle) bool {
	if entities != nil {
		if entities.PRA != "" || entities.FileNo != "" || entities.FileName != "" {
			return true
		}
		if entities.PlotNo != "" || entities.RoadNo != "" || entities.Area != "" {
			return true
		}
	}

	q := strings.ToLower(userQuery)
	if praLiteralPattern.MatchString(q) {
		return true
	}
	if plotNumberPattern.MatchString(q) || roadNumberPattern.MatchString(q) {
		return true
	}
	return fileRefPattern.MatchString(q)
}

// extractLastPropertyFromHistory walks the history newest-first looking
// for a PRA or a "plot X ... road Y" mention. Road values may be
// numeric or named ("East Avenue Road").
func extractLastPropertyFromHistory(history []models.Turn) *historyProperty {
	for i := len(history) - 1; i >= 0; i-- {
		text := strings.TrimSpace(history[i].Content)
		if text == "" {
			continue
		}

		if m := historyPRAPattern.FindStringSubmatch(text); m != nil {
			prop := &historyProperty{PRA: m[1]}
			if parts := strings.Split(m[1], "|"); len(parts) == 3 {
				prop.PlotNo = parts[0]
				prop.RoadNo = parts[1]
				prop.Area = parts[2]
			}
			return prop
		}

		if m := historyPlotRoadPattern.FindStringSubmatch(text); m != nil {
			prop := &historyProperty{PlotNo: m[1], RoadNo: m[2]}
			if a := historyAreaPattern.FindStringSubmatch(text); a != nil {
				prop.Area = "Punjabi Bagh " + titleWord(a[1])
			}
			return prop
		}

		if m := historyTextRoadPattern.FindStringSubmatch(text); m != nil {
			prop := &historyProperty{PlotNo: m[1], RoadNo: strings.TrimSpace(m[2])}
			if a := historyAreaPattern.FindStringSubmatch(text); a != nil {
				prop.Area = "Punjabi Bagh " + titleWord(a[1])
			}
			return prop
		}
	}
	return nil
}

// resolveVaguePropertyWithHistory deterministically substitutes "this
// plot/property/file" with the last property from history, so the
// pipeline is not fully dependent on the model following the prompt.
func resolveVaguePropertyWithHistory(userQuery string, history []models.Turn, entities *models.EntityBundle) string {
	if hasExplicitPropertyInfo(userQuery, entities) {
		return userQuery
	}

	lower := strings.ToLower(userQuery)
	vague := false
	for _, phrase := range []string{
		"this plot", "this property", "this file",
		"that plot", "that property", "that file",
	} {
		if strings.Contains(lower, phrase) {
			vague = true
			break
		}
	}
	if !vague {
		return userQuery
	}

	prop := extractLastPropertyFromHistory(history)
	if prop == nil {
		return userQuery
	}

	var ident string
	switch {
	case prop.PRA != "":
		ident = "property " + prop.PRA
	case prop.PlotNo != "" && prop.RoadNo != "" && prop.Area != "":
		ident = "plot " + prop.PlotNo + " on road " + prop.RoadNo + " in " + prop.Area
	case prop.PlotNo != "" && prop.RoadNo != "":
		ident = "plot " + prop.PlotNo + " on road " + prop.RoadNo
	default:
		return userQuery
	}

	return vaguePropertyPattern.ReplaceAllString(userQuery, ident)
}

// injectFocusIfNeeded appends the tracked focus property/person as a
// parenthesised suffix when the message uses pronouns but names
// nothing explicit.
func injectFocusIfNeeded(userQuery string, focus *memory.Focus, entities *models.EntityBundle) string {
	if hasExplicitPropertyInfo(userQuery, entities) {
		return userQuery
	}
	if focus == nil || (focus.Property == nil && focus.Person == "") {
		return userQuery
	}

	tokens := wordSet(strings.Fields(punctPattern.ReplaceAllString(strings.ToLower(userQuery), " "))...)

	var suffixes []string
	if focus.Property != nil && anyToken(tokens, propertyPronouns) {
		if focus.Property.PRA != "" {
			suffixes = append(suffixes, "for property PRA "+focus.Property.PRA)
		} else if focus.Property.FileName != "" {
			suffixes = append(suffixes, "for file name "+focus.Property.FileName)
		}
	}
	if focus.Person != "" && anyToken(tokens, personPronouns) {
		suffixes = append(suffixes, "for person "+focus.Person)
	}

	if len(suffixes) == 0 {
		return userQuery
	}
	return strings.TrimSpace(userQuery) + " (" + strings.Join(suffixes, ", ") + ")"
}

// normalizePropertyWordsToPlot rewrites "property"/"properties" to
// "plot"/"plots", preserving capitalization style.
func normalizePropertyWordsToPlot(text string) string {
	if text == "" {
		return text
	}
	return propertyWordPattern.ReplaceAllStringFunc(text, func(word string) string {
		base := "plot"
		if strings.EqualFold(word, "properties") {
			base = "plots"
		}
		switch {
		case word == strings.ToUpper(word):
			return strings.ToUpper(base)
		case word[0] >= 'A' && word[0] <= 'Z':
			return strings.ToUpper(base[:1]) + base[1:]
		default:
			return base
		}
	})
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func anyToken(tokens, wanted map[string]struct{}) bool {
	for t := range tokens {
		if _, ok := wanted[t]; ok {
			return true
		}
	}
	return false
}
