// Package resolve snaps user-typed identifiers to canonical database
// values. Plot and road numbers, areas and person names arrive with
// typos and odd spacing; fuzzy matching against the live registry keeps
// the generated SQL filtering on values that actually exist.
package resolve

import (
	"context"
	"fmt"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/database"
)

const (
	// Score thresholds tuned on real registry data. Road numbers are
	// noisier than person names, so the bar sits lower.
	ColumnMatchThreshold = 65
	PlotMatchThreshold   = 80
	PersonMatchThreshold = 85

	addressValueCap = 5000
	personValueCap  = 45000
)

// Resolver loads candidate values through the guarded SQL executor and
// picks the closest match. All lookups are best-effort: any failure
// returns the caller's input unchanged rather than an error, because a
// misspelled value is still a usable filter.
type Resolver struct {
	runner database.SelectRunner
	logger *zap.Logger
}

func NewResolver(runner database.SelectRunner, logger *zap.Logger) *Resolver {
	return &Resolver{
		runner: runner,
		logger: logger.Named("resolve"),
	}
}

// ResolveColumnValue matches raw against the distinct values of an
// address column. Only plot_no and road_no are looked up; anything else
// passes through untouched.
func (r *Resolver) ResolveColumnValue(ctx context.Context, column, raw string, threshold int) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return raw
	}
	if column != "plot_no" && column != "road_no" {
		return raw
	}

	query := fmt.Sprintf(`SELECT DISTINCT TRIM(%[1]s) AS val
FROM property_addresses
WHERE %[1]s IS NOT NULL
  AND TRIM(%[1]s) <> ''
LIMIT %[2]d;`, column, addressValueCap)

	choices := r.loadChoices(ctx, query)
	if len(choices) == 0 {
		return raw
	}

	best, score := bestMatch(value, choices)
	if score >= threshold {
		if best != value {
			r.logger.Debug("snapped value to canonical form",
				zap.String("column", column),
				zap.String("raw", value),
				zap.String("matched", best),
				zap.Int("score", score))
		}
		return best
	}
	return raw
}

// ResolvePersonName matches raw against persons.name.
func (r *Resolver) ResolvePersonName(ctx context.Context, raw string, threshold int) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return raw
	}

	query := fmt.Sprintf(`SELECT DISTINCT TRIM(name) AS val
FROM persons
WHERE name IS NOT NULL
  AND TRIM(name) <> ''
LIMIT %d;`, personValueCap)

	choices := r.loadChoices(ctx, query)
	if len(choices) == 0 {
		return raw
	}

	best, score := bestMatch(name, choices)
	if score >= threshold {
		return best
	}
	return raw
}

func (r *Resolver) loadChoices(ctx context.Context, query string) []string {
	rows, err := r.runner.RunSelect(ctx, query, true)
	if err != nil {
		r.logger.Warn("distinct value lookup failed", zap.Error(err))
		return nil
	}

	choices := make([]string, 0, len(rows))
	for _, row := range rows {
		if v, ok := row["val"].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				choices = append(choices, v)
			}
		}
	}
	return choices
}

func bestMatch(value string, choices []string) (string, int) {
	best, bestScore := "", -1
	for _, c := range choices {
		if score := fuzzy.WRatio(value, c); score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, bestScore
}
