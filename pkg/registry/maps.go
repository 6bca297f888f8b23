// Package registry provides direct lookups against the property
// registry: PRA resolution from plot/road pairs and map geometry
// retrieval. All SQL still runs through the guarded executor.
package registry

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/database"
	"github.com/pbchs/registry-assistant/pkg/sqlguard"
)

// Maps resolves PRAs and fetches GeoJSON features for the frontend.
type Maps struct {
	runner database.SelectRunner
	logger *zap.Logger
}

func NewMaps(runner database.SelectRunner, logger *zap.Logger) *Maps {
	return &Maps{
		runner: runner,
		logger: logger.Named("maps"),
	}
}

// LookupPRAForPlotRoad returns the PRAs registered for a canonical
// plot/road pair, capped at 5 rows. The executed SQL is returned so
// callers can surface it in turn results.
func (m *Maps) LookupPRAForPlotRoad(ctx context.Context, plot, road string) (string, []map[string]any, error) {
	if err := sqlguard.CheckValueForInjection("plot_no", plot); err != nil {
		return "", nil, fmt.Errorf("pra lookup: %w", err)
	}
	if err := sqlguard.CheckValueForInjection("road_no", road); err != nil {
		return "", nil, fmt.Errorf("pra lookup: %w", err)
	}

	sqlText := fmt.Sprintf(`SELECT p.pra
FROM properties p
JOIN property_addresses pa
  ON pa.property_id = p.id
WHERE TRIM(pa.plot_no) = '%s'
  AND TRIM(pa.road_no) = '%s'
LIMIT 5;`, escapeLiteral(plot), escapeLiteral(road))

	rows, err := m.runner.RunSelect(ctx, sqlText, true)
	if err != nil {
		return sqlText, nil, fmt.Errorf("pra lookup: %w", err)
	}
	return sqlText, rows, nil
}

// FetchMapForPRA returns GeoJSON feature rows from plot_map for the
// given PRA. Each row carries an id and a "feature" object with
// geometry and properties.
func (m *Maps) FetchMapForPRA(ctx context.Context, pra string) (string, []map[string]any, error) {
	if err := sqlguard.CheckValueForInjection("pra", pra); err != nil {
		return "", nil, fmt.Errorf("map fetch: %w", err)
	}

	sqlText := fmt.Sprintf(`SELECT
  id,
  jsonb_build_object(
    'type', 'Feature',
    'geometry', ST_AsGeoJSON(geom)::jsonb,
    'properties', properties
  ) AS feature
FROM plot_map
WHERE properties->>'pra_id' = '%s';`, escapeLiteral(pra))

	rows, err := m.runner.RunSelect(ctx, sqlText, false)
	if err != nil {
		return sqlText, nil, fmt.Errorf("map fetch: %w", err)
	}
	return sqlText, rows, nil
}

// ExtractGeometries pulls the bare geometry objects out of feature
// rows for frontend rendering.
func ExtractGeometries(rows []map[string]any) []map[string]any {
	geometries := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		feature, ok := row["feature"].(map[string]any)
		if !ok {
			continue
		}
		if geom, ok := feature["geometry"].(map[string]any); ok {
			geometries = append(geometries, geom)
		}
	}
	return geometries
}

// PRAValues collects the non-empty pra column values from lookup rows.
func PRAValues(rows []map[string]any) []string {
	pras := make([]string, 0, len(rows))
	for _, row := range rows {
		if pra, ok := row["pra"].(string); ok && strings.TrimSpace(pra) != "" {
			pras = append(pras, pra)
		}
	}
	return pras
}

func escapeLiteral(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
