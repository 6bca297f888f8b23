package apperrors

import "errors"

var (
	// ErrNotFound indicates no registry record matched the lookup.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousMatch indicates more than one registry record matched and
	// the caller must ask the user to disambiguate.
	ErrAmbiguousMatch = errors.New("ambiguous match")

	// ErrMissingIdentifier indicates exactly one record matched but its PRA
	// field is empty, so downstream document/geometry work cannot proceed.
	ErrMissingIdentifier = errors.New("record has no PRA stored")

	// ErrRepairExhausted indicates the SQL repair loop ran out of retries.
	ErrRepairExhausted = errors.New("sql repair retries exhausted")

	// ErrParseFailure indicates plot/road could not be extracted from free text.
	ErrParseFailure = errors.New("could not parse plot and road from text")
)
