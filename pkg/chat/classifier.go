// Package chat implements the conversation state machine: per-turn
// classification and routing, the note-summary wizard, map lookups and
// the full question-to-answer SQL pipeline.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/llm"
	"github.com/pbchs/registry-assistant/pkg/models"
	"github.com/pbchs/registry-assistant/pkg/prompts"
)

// mutationPattern hard-blocks any data-modifying intent before the
// model sees the message.
var mutationPattern = regexp.MustCompile(`\b(delete|update|append|remove|drop|insert|edit|change|modify)\b`)

// propertyKeywords shortcut classification for obvious domain
// questions so a chatty model cannot misroute them.
var propertyKeywords = []string{
	"plot", "plots", "property", "properties", "pra", "road",
	"file no", "file number", "file_name",
	"current owner", "owner", "owners",
	"sale deed", "transaction", "transactions",
	"society member", "society membership", "share certificate",
	"club member", "club membership",
	"dob", "date of birth", "birthday", "birthdays", "born",
	"email", "occupation", "work", "works",
	"phone", "phone number", "phone numbers",
	"mobile", "mobile number", "mobile numbers",
	"address", "addresses",
	"pan", "aadhaar", "pan number", "aadhaar number",
	"pan card", "aadhaar card", "pan card number", "aadhaar card number",
}

// Classifier labels each turn as property_talk, small_talk or
// irrelevant_question. Two deterministic overrides run before the
// model: a mutation block and a domain keyword heuristic.
type Classifier struct {
	generator llm.Generator
	logger    *zap.Logger
}

func NewClassifier(generator llm.Generator, logger *zap.Logger) *Classifier {
	return &Classifier{
		generator: generator,
		logger:    logger.Named("classifier"),
	}
}

// Classify returns the routing label for the current message. History
// is only consulted by the model path, to resolve follow-ups.
func (c *Classifier) Classify(ctx context.Context, userQuery string, history []models.Turn) models.Classification {
	q := strings.ToLower(userQuery)

	if mutationPattern.MatchString(q) {
		return models.Classification{
			Label:  models.LabelIrrelevant,
			Reason: "Query attempts to modify or edit data, which is not allowed.",
		}
	}

	for _, kw := range propertyKeywords {
		if strings.Contains(q, kw) {
			return models.Classification{
				Label:  models.LabelPropertyTalk,
				Reason: "Heuristic: query contains property-related keywords.",
			}
		}
	}

	userPrompt := fmt.Sprintf(`You must answer with a JSON object with fields "label" and "reason".
Return only the JSON.

User message:
%s

Recent conversation history (may be empty):
%s`, userQuery, renderHistoryJSON(history))

	response, err := c.generator.GenerateJSON(ctx, prompts.ClassificationSystemPrompt, userPrompt, 0.0)
	if err != nil {
		c.logger.Warn("classification call failed, defaulting to property_talk", zap.Error(err))
		return models.Classification{Label: models.LabelPropertyTalk}
	}

	cls, err := llm.ParseJSONResponse[models.Classification](response)
	if err != nil {
		c.logger.Warn("classification response unparseable, defaulting to property_talk", zap.Error(err))
		return models.Classification{Label: models.LabelPropertyTalk}
	}

	cls.Label = models.ClassificationLabel(strings.TrimSpace(string(cls.Label)))
	if cls.Label == "" {
		cls.Label = models.LabelPropertyTalk
	}
	return cls
}

// renderHistoryJSON serializes turns as role/content pairs for prompt
// inclusion. An empty history renders as "[]".
func renderHistoryJSON(history []models.Turn) string {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	msgs := make([]msg, 0, len(history))
	for _, t := range history {
		msgs = append(msgs, msg{Role: string(t.Role), Content: t.Content})
	}
	out, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(out)
}
