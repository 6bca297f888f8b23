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

// mapLookup handles "show the map of plot 30 road 15" in a single
// turn: parse, fuzzy-resolve, find the PRA, fetch geometry. The
// zero/multiple/single-match branching mirrors the note flow.
func (s *Session) mapLookup(ctx context.Context, userQuery string) *models.TurnResult {
	plotRaw, roadRaw := resolve.ParsePlotRoadFromText(userQuery)
	if plotRaw == "" || roadRaw == "" {
		return &models.TurnResult{
			Answer: "To show the property map, please tell me both the plot and " +
				"road number, e.g. 'show the map of plot 30 road 14'.",
			SQL: "-- MAP_LOOKUP: could not parse plot/road",
		}
	}

	plot := s.deps.Resolver.ResolveColumnValue(ctx, "plot_no", plotRaw, wizardPlotThreshold)
	road := s.deps.Resolver.ResolveColumnValue(ctx, "road_no", roadRaw, wizardRoadThreshold)

	lookupSQL, praRows, err := s.deps.Maps.LookupPRAForPlotRoad(ctx, plot, road)
	if err != nil {
		s.logger.Warn("pra lookup failed", zap.Error(err))
		praRows = nil
	}

	if len(praRows) == 0 {
		return &models.TurnResult{
			Answer: fmt.Sprintf("I couldn't find any property for plot %s and road %s, "+
				"so I don't have a map to show.", plot, road),
			SQL: lookupSQL,
		}
	}

	if len(praRows) > 1 {
		pras := registry.PRAValues(praRows)
		prasList := "N/A"
		if len(pras) > 0 {
			prasList = strings.Join(pras, ", ")
		}
		return &models.TurnResult{
			Answer: fmt.Sprintf("There are multiple properties for plot %s and road %s.\n"+
				"Matching PRAs: %s.\n"+
				"Please specify exactly which PRA you want the map for, e.g. "+
				"'show the map for PRA 23|18|Punjabi Bagh East'.", plot, road, prasList),
			SQL:  lookupSQL,
			Rows: praRows,
		}
	}

	pra, _ := praRows[0]["pra"].(string)
	if pra == "" {
		return &models.TurnResult{
			Answer: fmt.Sprintf("I found one property for plot %s and road %s, "+
				"but it does not have a PRA stored, so I can't fetch a map.", plot, road),
			SQL:  lookupSQL,
			Rows: praRows,
		}
	}

	mapSQL, mapRows, err := s.deps.Maps.FetchMapForPRA(ctx, pra)
	if err != nil {
		s.logger.Warn("map fetch failed", zap.String("pra", pra), zap.Error(err))
		mapRows = nil
	}

	if len(mapRows) == 0 {
		return &models.TurnResult{
			Answer: fmt.Sprintf("I found property %s for plot %s and road %s, "+
				"but there is currently no map geometry stored for it.", pra, plot, road),
			SQL: mapSQL,
		}
	}

	return &models.TurnResult{
		Answer: fmt.Sprintf("Map geometry is available for property %s (plot %s, road %s). "+
			"I've returned the GeoJSON feature(s) that your frontend can render.", pra, plot, road),
		SQL:      mapSQL,
		Rows:     mapRows,
		Geometry: registry.ExtractGeometries(mapRows),
	}
}
