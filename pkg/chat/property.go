package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/models"
	"github.com/pbchs/registry-assistant/pkg/prompts"
	"github.com/pbchs/registry-assistant/pkg/retrieval"
)

// runPropertyTalk is the full question-to-answer pipeline: entity
// extraction, standalone rewrite, retrieval, SQL generation with
// bounded repair, execution with one database-error repair, and the
// streamed explanation.
func (s *Session) runPropertyTalk(ctx context.Context, userQuery string, history []models.Turn, onToken func(string)) *models.TurnResult {
	entities := extractEntities(ctx, s.deps.Generator, userQuery, s.logger)
	s.focus.UpdateFromEntities(entities)

	standalone := buildStandaloneQuestion(ctx, s.deps.Generator, userQuery, history, entities, s.focus, s.logger)
	question := s.deps.Resolver.PostprocessStandaloneQuestion(ctx, standalone.StandaloneQuestion, entities)

	examples := s.retrieveExamples(ctx, question)

	sqlText, genErr := s.generateSQL(ctx, question, entities, examples)

	var rows []map[string]any
	if genErr != nil {
		sqlText = fmt.Sprintf("-- ERROR: unsafe SQL blocked: %v", genErr)
	} else {
		sqlText, rows = s.executeSQL(ctx, sqlText, question)
	}

	answer := buildFinalAnswer(ctx, s.deps.Generator, userQuery, question, sqlText, rows, onToken, s.logger)
	s.focus.UpdateFromRows(rows)

	result := &models.TurnResult{
		Answer: answer,
		SQL:    sqlText,
		Rows:   rows,
	}
	s.saveHistory(ctx, models.LabelPropertyTalk, question, result)
	return result
}

// retrieveExamples fetches candidate SQL examples and applies the
// relevance gate. A weak best match drops them all.
func (s *Session) retrieveExamples(ctx context.Context, question string) []retrieval.Match {
	matches, err := s.deps.Index.QueryExamples(ctx, question, 5)
	if err != nil {
		s.logger.Warn("example retrieval failed", zap.Error(err))
		return nil
	}
	return retrieval.SelectRelevant(matches, s.deps.Config.SQLSimilarityThreshold, 3)
}

// generateSQL drafts the statement and runs it through the bounded
// validation-repair loop. If the loop gives up, one second-tier repair
// request restates the JSON-column rules with the rejection reason and
// the result goes through the loop again.
func (s *Session) generateSQL(ctx context.Context, question string, entities *models.EntityBundle, examples []retrieval.Match) (string, error) {
	raw, err := s.deps.Generator.GenerateText(ctx, prompts.SQLGenerationSystemPrompt,
		buildSQLPrompt(question, entities, examples), 0.0)
	if err != nil {
		return "", fmt.Errorf("sql generation: %w", err)
	}
	draft := CleanSQL(raw)

	safe, _, err := s.deps.Repair.Resolve(ctx, draft, question, s.deps.Config.RepairMaxRetries)
	if err == nil {
		return safe, nil
	}
	s.logger.Info("validation repair exhausted, trying second-tier repair", zap.Error(err))

	repaired, genErr := s.deps.Generator.GenerateText(ctx, prompts.SQLGenerationSystemPrompt,
		validationRepairPrompt(draft, err.Error()), 0.0)
	if genErr != nil {
		return "", err
	}

	safe, _, err2 := s.deps.Repair.Resolve(ctx, CleanSQL(repaired), question, s.deps.Config.RepairMaxRetries)
	if err2 != nil {
		return "", err2
	}
	return safe, nil
}

// executeSQL runs the validated statement. A database rejection gets
// one model-driven repair using the live error text; the repaired
// statement is re-validated and re-run. Failures degrade to an error
// placeholder with no rows.
func (s *Session) executeSQL(ctx context.Context, sqlText, question string) (string, []map[string]any) {
	rows, err := s.deps.Runner.RunSelect(ctx, sqlText, false)
	if err == nil {
		return sqlText, rows
	}
	s.logger.Warn("query execution failed, attempting repair", zap.Error(err))

	repaired, repErr := s.deps.Repair.RepairFromExecutionError(ctx, sqlText, question, err.Error())
	if repErr != nil {
		return fmt.Sprintf("-- ERROR after repair: %v", repErr), nil
	}

	rows, err = s.deps.Runner.RunSelect(ctx, repaired, false)
	if err != nil {
		return fmt.Sprintf("-- ERROR after repair: %v", err), nil
	}
	return repaired, rows
}
