package models

import (
	"encoding/json"

	"github.com/pbchs/registry-assistant/pkg/jsonutil"
)

// Intent values the extraction model may emit. Unknown values fall back
// to IntentGenericSQL.
const (
	IntentCurrentOwner     = "current_owner"
	IntentOwnershipHistory = "ownership_history"
	IntentTransactions     = "transactions"
	IntentAggregateStats   = "aggregate_stats"
	IntentGenericSQL       = "generic_sql"
)

// EntityBundle is the structured entity set extracted from one user turn.
// All fields are optional; empty string / nil slice means "not mentioned".
type EntityBundle struct {
	PRA      string   `json:"pra"`
	FileName string   `json:"file_name"`
	FileNo   string   `json:"file_no"`
	PlotNo   string   `json:"plot_no"`
	RoadNo   string   `json:"road_no"`
	Area     string   `json:"area"`
	Person   []string `json:"person"`
	YearFrom string   `json:"year_from"`
	YearTo   string   `json:"year_to"`
	Intent   string   `json:"intent"`
}

// UnmarshalJSON tolerates the loose shapes extraction models produce:
// numbers where strings are expected, a bare string where the person
// list is expected, explicit nulls everywhere.
func (e *EntityBundle) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.PRA = jsonutil.FlexibleStringValue(raw["pra"])
	e.FileName = jsonutil.FlexibleStringValue(raw["file_name"])
	e.FileNo = jsonutil.FlexibleStringValue(raw["file_no"])
	e.PlotNo = jsonutil.FlexibleStringValue(raw["plot_no"])
	e.RoadNo = jsonutil.FlexibleStringValue(raw["road_no"])
	e.Area = jsonutil.FlexibleStringValue(raw["area"])
	e.Person = jsonutil.FlexibleStringList(raw["person"])
	e.YearFrom = jsonutil.FlexibleStringValue(raw["year_from"])
	e.YearTo = jsonutil.FlexibleStringValue(raw["year_to"])

	e.Intent = jsonutil.FlexibleStringValue(raw["intent"])
	if e.Intent == "" {
		e.Intent = IntentGenericSQL
	}
	return nil
}

// IsEmpty reports whether no entity was extracted at all.
func (e *EntityBundle) IsEmpty() bool {
	return e.PRA == "" && e.FileName == "" && e.FileNo == "" &&
		e.PlotNo == "" && e.RoadNo == "" && e.Area == "" &&
		len(e.Person) == 0 && e.YearFrom == "" && e.YearTo == ""
}
