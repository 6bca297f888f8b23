package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/llm"
	"github.com/pbchs/registry-assistant/pkg/prompts"
)

// hiddenFields never reach the answer model: internal identifiers and
// housekeeping columns would leak into user-facing text otherwise.
var hiddenFields = map[string]struct{}{
	"id":           {},
	"property_id":  {},
	"sale_deed_id": {},
	"buyer_id":     {},
	"seller_id":    {},
	"person_id":    {},
	"file_no":      {},
	"file_name":    {},
	"qc_status":    {},
	"flag":         {},
	"status":       {},
}

// stripHiddenFields removes internal columns, plus anything ending in
// "_id", from result rows before prompt inclusion.
func stripHiddenFields(rows []map[string]any) []map[string]any {
	cleaned := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out := make(map[string]any, len(row))
		for k, v := range row {
			if _, hidden := hiddenFields[k]; hidden || strings.HasSuffix(k, "_id") {
				continue
			}
			out[k] = v
		}
		cleaned = append(cleaned, out)
	}
	return cleaned
}

// buildFinalAnswer streams the user-facing explanation of the query
// results. Zero rows short-circuit to the fixed no-information line so
// the reply cannot drift.
func buildFinalAnswer(
	ctx context.Context,
	generator llm.Generator,
	userQuery, standaloneQuestion, sqlText string,
	rows []map[string]any,
	onToken func(string),
	logger *zap.Logger,
) string {
	if len(rows) == 0 {
		if onToken != nil {
			onToken(prompts.NoRowsReply)
		}
		return prompts.NoRowsReply
	}

	rowsJSON, err := json.MarshalIndent(stripHiddenFields(rows), "", "  ")
	if err != nil {
		logger.Warn("result rows not serializable", zap.Error(err))
		rowsJSON = []byte("[]")
	}

	userPrompt := fmt.Sprintf(`User's original question:
%s

Standalone question used for SQL:
%s

Executed SQL query:
%s

Total rows returned: %d

Sample of result rows (JSON):
%s

Now write a concise explanation in plain English.`,
		userQuery, standaloneQuestion, sqlText, len(rows), string(rowsJSON))

	answer, err := generator.GenerateStream(ctx, prompts.FinalResponseSystemPrompt, userPrompt, 0.2, onToken)
	if err != nil {
		logger.Warn("answer generation failed", zap.Error(err))
		return prompts.NoRowsReply
	}
	return strings.TrimSpace(answer)
}
