// Package sqlguard validates model-generated SQL before it can touch the
// registry: single-statement normalization, a keyword guard, an AST-level
// table/column whitelist and limit enforcement, plus the bounded repair
// loop that asks the model to fix rejected queries.
package sqlguard

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Whitelist is the set of tables the model may touch and, per table, the
// columns it may reference. Pure data, consumed by the guardrail.
type Whitelist struct {
	Tables map[string][]string `yaml:"tables"`

	columns map[string]map[string]struct{}
	anyCol  map[string]struct{}
}

// DefaultWhitelist returns the registry schema whitelist.
func DefaultWhitelist() *Whitelist {
	wl := &Whitelist{Tables: map[string][]string{
		"properties": {
			"id", "pra", "file_no", "file_name", "file_link", "qc_status",
		},
		"property_addresses": {
			"id", "property_id", "plot_no", "road_no", "street_name",
			"initial_plot_size", "source_page", "flag",
		},
		"persons": {
			"id", "pra", "name", "dob", "family_members", "address",
			"phone_number", "email", "pan", "aadhaar", "img_link",
			"occupation", "source_page", "person_source", "flag",
		},
		"ownership_records": {
			"id", "property_id", "buyer_id", "sale_deed_id", "transfer_type",
			"buyer_portion", "total_stamp_duty_paid", "notes", "source_page", "flag",
		},
		"ownership_sellers": {
			"ownership_id", "person_id",
		},
		"current_owners": {
			"id", "property_id", "buyer_id", "buyer_portion", "source_page", "flag",
		},
		"current_owner_sellers": {
			"current_owner_id", "person_id",
		},
		"sale_deeds": {
			"id", "person_id", "property_id", "sale_deed_no", "book_no",
			"page_no", "signing_date", "registry_status", "owners_portion_sold",
			"total_property_portion_sold", "source_page", "pdf_link", "flag",
		},
		"construction_details": {
			"id", "property_id", "coverage_built_up_area", "circle_rate_colony",
			"land_price_per_sqm", "construction_price_per_sqm",
			"total_covered_area", "source_page", "pdf_link", "flag",
		},
		"legal_details": {
			"id", "property_id", "registrar_office", "court_cases",
			"source_page", "pdf_link", "flag",
		},
		"share_certificates": {
			"id", "certificate_number", "property_id", "member_id",
			"date_of_transfer", "date_of_ending", "notes", "source_page",
			"pdf_link", "flag",
		},
		"club_memberships": {
			"id", "member_id", "property_id", "allocation_date",
			"membership_end_date", "membership_number", "source_page",
			"pdf_link", "flag",
		},
		"misc_documents": {
			"id", "property_id", "pra",
		},
		// GeoJSON feature rows for the map flow.
		"plot_map": {
			"id", "geom", "properties",
		},
	}}
	wl.index()
	return wl
}

// LoadWhitelist reads a YAML whitelist override from path.
func LoadWhitelist(path string) (*Whitelist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read whitelist: %w", err)
	}

	var wl Whitelist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parse whitelist: %w", err)
	}
	if len(wl.Tables) == 0 {
		return nil, fmt.Errorf("whitelist %s defines no tables", path)
	}
	wl.index()
	return &wl, nil
}

func (w *Whitelist) index() {
	w.columns = make(map[string]map[string]struct{}, len(w.Tables))
	w.anyCol = make(map[string]struct{})
	for table, cols := range w.Tables {
		set := make(map[string]struct{}, len(cols))
		for _, c := range cols {
			set[c] = struct{}{}
			w.anyCol[c] = struct{}{}
		}
		w.columns[table] = set
	}
}

// AllowsTable reports whether table may be referenced.
func (w *Whitelist) AllowsTable(table string) bool {
	_, ok := w.columns[table]
	return ok
}

// AllowsColumn reports whether table.column may be referenced.
func (w *Whitelist) AllowsColumn(table, column string) bool {
	cols, ok := w.columns[table]
	if !ok {
		return false
	}
	_, ok = cols[column]
	return ok
}

// AllowsColumnAnywhere reports whether a bare column name exists in any
// table's allowed set.
func (w *Whitelist) AllowsColumnAnywhere(column string) bool {
	_, ok := w.anyCol[column]
	return ok
}

// RenderText renders the whitelist as the schema block shown to the model
// in repair prompts.
func (w *Whitelist) RenderText() string {
	tables := make([]string, 0, len(w.Tables))
	for t := range w.Tables {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	var b strings.Builder
	for _, t := range tables {
		cols := append([]string(nil), w.Tables[t]...)
		sort.Strings(cols)
		fmt.Fprintf(&b, "- %s: %s\n", t, strings.Join(cols, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
