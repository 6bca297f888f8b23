// Package memory tracks the conversational focus: the property and
// person the user most recently talked about, plus the last result rows.
// Pure in-process state, one instance per user/thread, no persistence.
package memory

import (
	"strings"

	"github.com/pbchs/registry-assistant/pkg/models"
)

// PropertyRef identifies the property currently in focus.
type PropertyRef struct {
	PRA      string
	FileName string
}

// Focus is the mutable conversation focus. Turns for one thread are
// serialized by the owning session, so no locking happens here.
type Focus struct {
	Property *PropertyRef
	Person   string
	LastRows []map[string]any
}

// NewFocus returns an empty focus.
func NewFocus() *Focus {
	return &Focus{}
}

// Reset clears all tracked state.
func (f *Focus) Reset() {
	f.Property = nil
	f.Person = ""
	f.LastRows = nil
}

// UpdateFromEntities refreshes the focus from a freshly extracted entity
// bundle. A known field is never erased by an empty update: new values
// win, missing values keep whatever was known before.
func (f *Focus) UpdateFromEntities(entities *models.EntityBundle) {
	if entities == nil {
		return
	}

	if entities.PRA != "" || entities.FileNo != "" || entities.FileName != "" ||
		entities.PlotNo != "" || entities.RoadNo != "" || entities.Area != "" {
		prev := f.Property
		next := &PropertyRef{PRA: entities.PRA, FileName: entities.FileName}
		if prev != nil {
			if next.PRA == "" {
				next.PRA = prev.PRA
			}
			if next.FileName == "" {
				next.FileName = prev.FileName
			}
		}
		f.Property = next
	}

	for _, p := range entities.Person {
		if name := strings.TrimSpace(p); name != "" {
			f.Person = name
			break
		}
	}
}

// UpdateFromRows refreshes the focus from executed query results. The
// first row's identifying columns, when present, become the new focus.
func (f *Focus) UpdateFromRows(rows []map[string]any) {
	f.LastRows = rows
	if len(rows) == 0 {
		return
	}

	row := rows[0]
	pra, hasPRA := row["pra"]
	fileName, hasFileName := row["file_name"]
	if hasPRA || hasFileName {
		f.Property = &PropertyRef{
			PRA:      stringValue(pra),
			FileName: stringValue(fileName),
		}
	}
	if name, ok := row["name"].(string); ok && strings.TrimSpace(name) != "" {
		f.Person = strings.TrimSpace(name)
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
