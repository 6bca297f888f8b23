package sqlguard

import (
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"go.uber.org/zap"
)

// DefaultLimit is appended to non-aggregate SELECTs that carry no LIMIT.
const DefaultLimit = 100

// Check names recorded on SafeQuery, in pipeline order.
const (
	CheckStatementNormalization = "statement_normalization"
	CheckKeywordGuard           = "keyword_guard"
	CheckTableColumnWhitelist   = "table_column_whitelist"
	CheckLimitEnforcement       = "limit_enforcement"
)

// SafeQuery is a validated statement plus the ordered list of checks that
// produced it.
type SafeQuery struct {
	SQL           string
	ChecksApplied []string
}

// Options controls per-call guardrail behavior.
type Options struct {
	// PreserveLimit leaves the statement's LIMIT clause untouched.
	// Used for deterministic lookups that constrain to exact row counts.
	PreserveLimit bool
}

// RejectionError is returned when a statement fails validation. The
// reason is shown to the model verbatim during repair.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

func reject(format string, args ...any) *RejectionError {
	return &RejectionError{Reason: fmt.Sprintf(format, args...)}
}

var (
	fenceOpenPattern = regexp.MustCompile("(?i)```sql")
	fencePattern     = regexp.MustCompile("```")

	dangerousKeywordPattern = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|TRUNCATE|ALTER|CREATE)\b`)
)

// aggregateFuncs are the function names that mark a query as aggregate,
// which exempts it from the default LIMIT.
var aggregateFuncs = map[string]struct{}{
	"count": {}, "sum": {}, "avg": {}, "min": {}, "max": {},
	"array_agg": {}, "string_agg": {}, "json_agg": {}, "jsonb_agg": {},
	"bool_and": {}, "bool_or": {},
}

// Guardrail validates candidate SQL against the whitelist. A pure
// function of (sql, whitelist); the logger only records rejections.
type Guardrail struct {
	wl     *Whitelist
	logger *zap.Logger
}

// NewGuardrail creates a guardrail over the given whitelist.
func NewGuardrail(wl *Whitelist, logger *zap.Logger) *Guardrail {
	return &Guardrail{
		wl:     wl,
		logger: logger.Named("sqlguard"),
	}
}

// Whitelist returns the whitelist the guardrail validates against.
func (g *Guardrail) Whitelist() *Whitelist {
	return g.wl
}

// Validate runs the full pipeline with default options.
func (g *Guardrail) Validate(sqlText string) (SafeQuery, error) {
	return g.ValidateWithOptions(sqlText, Options{})
}

// ValidateWithOptions runs the full pipeline: statement normalization,
// keyword guard, AST table/column whitelist, limit enforcement. Each
// stage short-circuits on failure; a statement is never partially checked.
func (g *Guardrail) ValidateWithOptions(sqlText string, opts Options) (SafeQuery, error) {
	var checks []string

	checks = append(checks, CheckStatementNormalization)
	cleaned, err := cleanSingleStatement(sqlText)
	if err != nil {
		g.logger.Warn("statement rejected",
			zap.String("check", CheckStatementNormalization),
			zap.Error(err))
		return SafeQuery{}, err
	}

	checks = append(checks, CheckKeywordGuard)
	if err := keywordGuard(cleaned); err != nil {
		g.logger.Warn("statement rejected",
			zap.String("check", CheckKeywordGuard),
			zap.Error(err))
		return SafeQuery{}, err
	}

	checks = append(checks, CheckTableColumnWhitelist)
	if err := g.checkStructure(strings.TrimSuffix(cleaned, ";")); err != nil {
		g.logger.Warn("statement rejected",
			zap.String("check", CheckTableColumnWhitelist),
			zap.Error(err))
		return SafeQuery{}, err
	}

	checks = append(checks, CheckLimitEnforcement)
	final := cleaned
	if !opts.PreserveLimit {
		final, err = enforceLimit(cleaned, DefaultLimit)
		if err != nil {
			g.logger.Warn("statement rejected",
				zap.String("check", CheckLimitEnforcement),
				zap.Error(err))
			return SafeQuery{}, err
		}
	}

	return SafeQuery{SQL: final, ChecksApplied: checks}, nil
}

// cleanSingleStatement strips markdown fences and enforces exactly one
// statement. Deliberately strict: more than one terminator is rejected
// outright rather than split.
func cleanSingleStatement(sqlText string) (string, error) {
	cleaned := fenceOpenPattern.ReplaceAllString(sqlText, "")
	cleaned = fencePattern.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return "", reject("empty SQL query")
	}
	if strings.Count(cleaned, ";") > 1 {
		return "", reject("multiple SQL statements are not allowed")
	}
	if !strings.HasSuffix(cleaned, ";") {
		cleaned += ";"
	}
	return cleaned, nil
}

// keywordGuard rejects non-SELECT statements and any occurrence of a
// data-mutating keyword. Coarse and fail-closed; the structural check
// behind it handles aliasing correctly.
func keywordGuard(sqlText string) error {
	upper := strings.ToUpper(strings.TrimSpace(sqlText))
	if !strings.HasPrefix(upper, "SELECT") {
		return reject("only SELECT queries are allowed")
	}
	if m := dangerousKeywordPattern.FindString(sqlText); m != "" {
		return reject("disallowed keyword '%s' found in SQL", strings.ToUpper(m))
	}
	return nil
}

// enforceLimit normalizes pagination: an existing LIMIT is kept as-is
// (the statement is only re-serialized), aggregate queries get no limit,
// everything else gets the default appended.
func enforceLimit(sqlText string, defaultLimit int) (string, error) {
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sqlText), ";"))

	result, err := pg_query.Parse(raw)
	if err != nil {
		return "", reject("SQL parse error while enforcing LIMIT: %v", err)
	}
	if len(result.Stmts) != 1 {
		return "", reject("expected exactly one statement")
	}
	sel := result.Stmts[0].Stmt.GetSelectStmt()
	if sel == nil {
		return "", reject("top-level query must be a SELECT")
	}

	normalized, err := pg_query.Deparse(result)
	if err != nil {
		return "", reject("SQL normalization failed: %v", err)
	}
	normalized = strings.TrimSpace(normalized)

	// The parsed clause, not the word "limit" in the text: a string
	// literal must not suppress the default.
	if sel.LimitCount != nil {
		return normalized + ";", nil
	}
	if hasAggregate(result) {
		return normalized + ";", nil
	}
	return fmt.Sprintf("%s LIMIT %d;", normalized, defaultLimit), nil
}

// hasAggregate reports whether any aggregate function call appears
// anywhere in the parse tree.
func hasAggregate(result *pg_query.ParseResult) bool {
	found := false
	walk(result, func(node *pg_query.Node) bool {
		fc := node.GetFuncCall()
		if fc == nil {
			return true
		}
		if len(fc.Funcname) > 0 {
			last := fc.Funcname[len(fc.Funcname)-1].GetString_()
			if last != nil {
				if _, ok := aggregateFuncs[strings.ToLower(last.Sval)]; ok {
					found = true
					return false
				}
			}
		}
		return true
	})
	return found
}
