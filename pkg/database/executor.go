package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/logging"
	"github.com/pbchs/registry-assistant/pkg/sqlguard"
)

// SelectRunner executes a single validated SELECT and returns rows as maps.
// Implementations must refuse anything the guardrail rejects.
type SelectRunner interface {
	RunSelect(ctx context.Context, sqlText string, preserveLimit bool) ([]map[string]any, error)
}

// Executor is the guarded read-only query path to the registry. Every
// statement passes through the guardrail before touching the pool, so a
// bad generation can never reach the database.
type Executor struct {
	db     *DB
	guard  *sqlguard.Guardrail
	logger *zap.Logger
}

// NewExecutor creates a guarded executor over the given pool.
func NewExecutor(db *DB, guard *sqlguard.Guardrail, logger *zap.Logger) *Executor {
	return &Executor{
		db:     db,
		guard:  guard,
		logger: logger.Named("executor"),
	}
}

// RunSelect validates sqlText and executes it. With preserveLimit set the
// guardrail leaves the caller's LIMIT untouched; otherwise the normal
// keep-or-add rule applies.
func (e *Executor) RunSelect(ctx context.Context, sqlText string, preserveLimit bool) ([]map[string]any, error) {
	safe, err := e.guard.ValidateWithOptions(sqlText, sqlguard.Options{PreserveLimit: preserveLimit})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("executing query",
		zap.String("sql", logging.SanitizeQuery(safe.SQL)))

	rows, err := e.db.Query(ctx, safe.SQL)
	if err != nil {
		logQueryFailure(e.logger, err)
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	e.logger.Info("query executed", zap.Int("rows", len(out)))
	logRowSample(e.logger, out)
	return out, nil
}

// rowSampleSize caps how many rows the debug sample logs.
const rowSampleSize = 3

// logRowSample logs a redacted sample of the result at debug level.
// Rows are never logged unsanitized: the persons table carries national
// identifiers and contact details.
func logRowSample(logger *zap.Logger, rows []map[string]any) {
	if len(rows) == 0 {
		return
	}
	n := len(rows)
	if n > rowSampleSize {
		n = rowSampleSize
	}
	logger.Debug("row sample", zap.Any("rows", logging.SanitizeRows(rows[:n])))
}

// logQueryFailure logs an execution error with credentials and key
// material scrubbed from the driver message.
func logQueryFailure(logger *zap.Logger, err error) {
	logger.Error("query failed", zap.String("error", logging.SanitizeError(err)))
}

var _ SelectRunner = (*Executor)(nil)
