// Package models defines the data types shared across the assistant core.
package models

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation, owned by history storage.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ClassificationLabel is the routing label produced per turn.
type ClassificationLabel string

const (
	LabelPropertyTalk ClassificationLabel = "property_talk"
	LabelSmallTalk    ClassificationLabel = "small_talk"
	LabelIrrelevant   ClassificationLabel = "irrelevant_question"
)

// Classification is the per-turn routing decision. Ephemeral, never persisted.
type Classification struct {
	Label  ClassificationLabel `json:"label"`
	Reason string              `json:"reason"`
}

// TurnResult is what a completed conversation turn returns to the caller.
type TurnResult struct {
	Answer string
	// SQL is the executed statement, or an annotated placeholder
	// (e.g. "-- NO SQL (small_talk)", "-- ERROR: ...") when no query ran.
	SQL      string
	Rows     []map[string]any
	Geometry []map[string]any

	// NotePRA and NotePath are set when a note document was generated.
	NotePRA  string
	NotePath string
}
