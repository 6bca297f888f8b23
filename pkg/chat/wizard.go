package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/models"
	"github.com/pbchs/registry-assistant/pkg/registry"
	"github.com/pbchs/registry-assistant/pkg/resolve"
)

const (
	wizardPlotThreshold = 80
	wizardRoadThreshold = 65
)

// startNoteWizard activates the two-step wizard and asks for the plot
// number. Wizard turns are never saved to history.
func (s *Session) startNoteWizard() *models.TurnResult {
	s.wizard = wizardState{active: true, step: wizardStepPlot}

	return &models.TurnResult{
		Answer: "To generate a property note summary I just need two details:\n" +
			"Step 1: Please tell me the plot number.",
		SQL: "-- NOTE_SUMMARY_FLOW",
	}
}

// collectPlot consumes the plot-number turn, snapping the input to the
// closest stored plot value, and advances to the road step.
func (s *Session) collectPlot(ctx context.Context, userQuery string) *models.TurnResult {
	rawPlot := strings.TrimSpace(userQuery)
	matchedPlot := s.deps.Resolver.ResolveColumnValue(ctx, "plot_no", rawPlot, wizardPlotThreshold)

	s.wizard.plot = matchedPlot
	s.wizard.step = wizardStepRoad

	var line string
	if matchedPlot != rawPlot {
		line = fmt.Sprintf("Got it, I interpreted plot '%s' as '%s' based on existing records.", rawPlot, matchedPlot)
	} else {
		line = fmt.Sprintf("Got it, plot number is %s.", matchedPlot)
	}

	return &models.TurnResult{
		Answer: line + "\nStep 2: Please tell me the road number.",
		SQL:    "-- NOTE_SUMMARY_FLOW",
	}
}

// collectRoad consumes the road-number turn, resolves the (plot, road)
// pair to a PRA and generates the note document. Every branch resets
// the wizard.
func (s *Session) collectRoad(ctx context.Context, userQuery string) *models.TurnResult {
	rawRoad := strings.TrimSpace(userQuery)
	matchedRoad := s.deps.Resolver.ResolveColumnValue(ctx, "road_no", rawRoad, wizardRoadThreshold)

	plot := strings.TrimSpace(s.wizard.plot)
	road := strings.TrimSpace(matchedRoad)
	s.wizard.reset()

	lookupSQL, praRows, err := s.deps.Maps.LookupPRAForPlotRoad(ctx, plot, road)
	if err != nil {
		s.logger.Warn("pra lookup failed", zap.Error(err))
		praRows = nil
	}

	if len(praRows) == 0 {
		extra := ""
		if matchedRoad != rawRoad {
			extra = fmt.Sprintf(" (road interpreted as '%s' from DB).", matchedRoad)
		}
		return &models.TurnResult{
			Answer: fmt.Sprintf("I couldn't find any property for plot %s and road %s.%s\n"+
				"Please check if the numbers are correct and try again.", plot, road, extra),
			SQL: "-- NOTE_SUMMARY_FLOW: no PRA found",
		}
	}

	if len(praRows) > 1 {
		return &models.TurnResult{
			Answer: multiplePRAsMessage(plot, road, praRows),
			SQL:    lookupSQL,
			Rows:   praRows,
		}
	}

	pra, _ := praRows[0]["pra"].(string)
	if pra == "" {
		return &models.TurnResult{
			Answer: fmt.Sprintf("I found one property for plot %s and road %s, "+
				"but it does not have a PRA stored. I can't generate the note summary.", plot, road),
			SQL:  lookupSQL,
			Rows: praRows,
		}
	}

	return s.generateNote(ctx, pra, lookupSQL, praRows)
}

// noteDirect handles single-utterance requests like "note summary for
// plot 30 road 14". Unparseable input falls back to the wizard.
func (s *Session) noteDirect(ctx context.Context, userQuery string) *models.TurnResult {
	plotRaw, roadRaw := resolve.ParsePlotRoadFromText(userQuery)
	if plotRaw == "" || roadRaw == "" {
		return s.startNoteWizard()
	}

	plot := s.deps.Resolver.ResolveColumnValue(ctx, "plot_no", strings.TrimSpace(plotRaw), wizardPlotThreshold)
	road := s.deps.Resolver.ResolveColumnValue(ctx, "road_no", strings.TrimSpace(roadRaw), wizardRoadThreshold)

	lookupSQL, praRows, err := s.deps.Maps.LookupPRAForPlotRoad(ctx, plot, road)
	if err != nil {
		s.logger.Warn("pra lookup failed", zap.Error(err))
		praRows = nil
	}

	if len(praRows) == 0 {
		return &models.TurnResult{
			Answer: fmt.Sprintf("I couldn't find any property for plot %s and road %s.\n"+
				"Please check if the numbers are correct and try again.", plot, road),
			SQL: "-- NOTE_SUMMARY_FLOW: no PRA found",
		}
	}

	if len(praRows) > 1 {
		return &models.TurnResult{
			Answer: multiplePRAsMessage(plot, road, praRows),
			SQL:    lookupSQL,
			Rows:   praRows,
		}
	}

	pra, _ := praRows[0]["pra"].(string)
	if pra == "" {
		return &models.TurnResult{
			Answer: fmt.Sprintf("I found one property for plot %s and road %s, "+
				"but it does not have a PRA stored. I can't generate the note summary.", plot, road),
			SQL:  lookupSQL,
			Rows: praRows,
		}
	}

	return s.generateNote(ctx, pra, lookupSQL, praRows)
}

// generateNote writes the PDF for the resolved PRA. The summary text
// and path are deliberately not shown to the user.
func (s *Session) generateNote(ctx context.Context, pra, lookupSQL string, praRows []map[string]any) *models.TurnResult {
	path, _, _, err := s.deps.Notes.GeneratePropertyNote(ctx, pra)
	if err != nil {
		s.logger.Error("note generation failed", zap.String("pra", pra), zap.Error(err))
		return &models.TurnResult{
			Answer: fmt.Sprintf("I couldn't generate the note summary for property %s. Please try again.", pra),
			SQL:    "-- NOTE_SUMMARY_FLOW",
			Rows:   praRows,
		}
	}

	return &models.TurnResult{
		Answer:   "note summary saved;",
		SQL:      lookupSQL + fmt.Sprintf("\n-- NOTE_SUMMARY for PRA %s", pra),
		Rows:     praRows,
		NotePRA:  pra,
		NotePath: path,
	}
}

func multiplePRAsMessage(plot, road string, praRows []map[string]any) string {
	pras := registry.PRAValues(praRows)
	prasList := "N/A"
	if len(pras) > 0 {
		prasList = strings.Join(pras, ", ")
	}
	return fmt.Sprintf("There are multiple properties for plot %s and road %s.\n"+
		"Matching PRAs: %s.\n"+
		"Please specify the exact PRA you want the note summary for.", plot, road, prasList)
}
