package chat

import (
	"context"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/llm"
	"github.com/pbchs/registry-assistant/pkg/models"
	"github.com/pbchs/registry-assistant/pkg/prompts"
)

// extractEntities runs the NER prompt over the current message. An
// empty bundle, not an error, comes back when the model returns
// nothing usable: "nothing extracted" is a normal outcome.
func extractEntities(ctx context.Context, generator llm.Generator, userQuery string, logger *zap.Logger) *models.EntityBundle {
	empty := &models.EntityBundle{Intent: models.IntentGenericSQL}

	userPrompt := "User query: " + userQuery + "\n\nReturn the JSON now."
	response, err := generator.GenerateJSON(ctx, prompts.NERSystemPrompt, userPrompt, 0.0)
	if err != nil {
		logger.Warn("entity extraction failed", zap.Error(err))
		return empty
	}

	entities, err := llm.ParseJSONResponse[models.EntityBundle](response)
	if err != nil {
		logger.Warn("entity extraction response unparseable", zap.Error(err))
		return empty
	}
	if entities.Intent == "" {
		entities.Intent = models.IntentGenericSQL
	}
	return &entities
}
