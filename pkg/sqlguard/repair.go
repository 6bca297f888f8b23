package sqlguard

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/apperrors"
	"github.com/pbchs/registry-assistant/pkg/llm"
)

// RepairAttempt records one iteration of the repair loop. The full
// ordered list is returned alongside the final SQL for observability.
type RepairAttempt struct {
	Attempt       int
	OK            bool
	Error         string
	OriginalSQL   string
	CleanedSQL    string
	FinalSQL      string
	ChecksApplied []string
}

// Resolver drives the bounded validate-repair loop: guard the candidate,
// and on rejection ask the model to fix it using the exact rejection
// reason and the whitelist as ground truth.
type Resolver struct {
	generator    llm.Generator
	guard        *Guardrail
	systemPrompt string
	logger       *zap.Logger
}

// NewResolver creates a repair resolver. systemPrompt is the SQL
// generation system prompt reused for repair requests.
func NewResolver(generator llm.Generator, guard *Guardrail, systemPrompt string, logger *zap.Logger) *Resolver {
	return &Resolver{
		generator:    generator,
		guard:        guard,
		systemPrompt: systemPrompt,
		logger:       logger.Named("sqlrepair"),
	}
}

// Resolve validates candidateSQL and regenerates it on rejection, at
// most maxRetries times. Returns the safe SQL and the attempt log; on
// exhaustion the last rejection reason is wrapped in
// apperrors.ErrRepairExhausted and the attempt log is still returned.
func (r *Resolver) Resolve(ctx context.Context, candidateSQL, question string, maxRetries int) (string, []RepairAttempt, error) {
	var attempts []RepairAttempt
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		safe, err := r.guard.Validate(candidateSQL)
		if err == nil {
			attempts = append(attempts, RepairAttempt{
				Attempt:       attempt + 1,
				OK:            true,
				OriginalSQL:   candidateSQL,
				CleanedSQL:    safe.SQL,
				FinalSQL:      safe.SQL,
				ChecksApplied: safe.ChecksApplied,
			})
			return safe.SQL, attempts, nil
		}

		var rejection *RejectionError
		if !errors.As(err, &rejection) {
			return "", attempts, err
		}
		lastErr = err

		attempts = append(attempts, RepairAttempt{
			Attempt:     attempt + 1,
			OK:          false,
			Error:       rejection.Reason,
			OriginalSQL: candidateSQL,
		})

		if attempt >= maxRetries {
			break
		}

		r.logger.Info("asking model to repair rejected SQL",
			zap.Int("attempt", attempt+1),
			zap.String("reason", rejection.Reason))

		regenerated, genErr := r.generator.GenerateText(ctx, r.systemPrompt,
			r.repairPrompt(question, candidateSQL, rejection.Reason), 0.0)
		if genErr != nil {
			return "", attempts, fmt.Errorf("repair generation: %w", genErr)
		}
		candidateSQL = regenerated
	}

	return "", attempts, fmt.Errorf("%w: %v", apperrors.ErrRepairExhausted, lastErr)
}

// RepairFromExecutionError asks the model to fix SQL that passed the
// guardrail but failed against the registry engine (type mismatches,
// JSON columns needing unwrapping). The regenerated statement is
// re-validated before being returned. Single-shot.
func (r *Resolver) RepairFromExecutionError(ctx context.Context, failedSQL, question, executionError string) (string, error) {
	regenerated, err := r.generator.GenerateText(ctx, r.systemPrompt,
		r.executionRepairPrompt(question, failedSQL, executionError), 0.0)
	if err != nil {
		return "", fmt.Errorf("repair generation: %w", err)
	}

	safe, err := r.guard.Validate(regenerated)
	if err != nil {
		return "", err
	}
	return safe.SQL, nil
}

func (r *Resolver) repairPrompt(question, sqlText, reason string) string {
	return fmt.Sprintf(`You previously wrote this PostgreSQL SELECT query for the question:

%s

SQL:
`+"```sql\n%s\n```"+`
It was rejected by the SQL safety validator with this error:
%s

You MUST fix the query using ONLY the tables and columns in the schema below.

ALLOWED SCHEMA:
%s

Requirements:

Single SELECT statement only (no CTEs that modify data, no DDL/DML)

Use only the tables and columns listed above

Never invent new columns (e.g. do NOT use columns that are not in the lists)

Do not use INSERT/UPDATE/DELETE/CREATE/DROP/ALTER/TRUNCATE

Include a LIMIT clause (the validator may normalize it)

Return ONLY the final PostgreSQL SELECT statement, ending with a semicolon.`,
		question, sqlText, reason, r.guard.Whitelist().RenderText())
}

func (r *Resolver) executionRepairPrompt(question, sqlText, executionError string) string {
	return fmt.Sprintf(`You previously wrote this PostgreSQL SELECT query for the question:

%s

SQL:
`+"```sql\n%s\n```"+`
Executing it against the database failed with this error:
%s

Fix the query. Pay attention to column types: JSON-typed columns need
explicit ->> extraction before comparison, and date columns stored as
text need casting.

ALLOWED SCHEMA:
%s

Return ONLY the corrected PostgreSQL SELECT statement, ending with a semicolon.`,
		question, sqlText, executionError, r.guard.Whitelist().RenderText())
}
