// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Character errors
	CodeCharacterNotFound     Code = "CHARACTER_NOT_FOUND"
	CodeCharacterInvalidSheet Code = "CHARACTER_INVALID_SHEET"

	// Composer errors
	CodePoolNoSelection    Code = "POOL_NO_SELECTION"
	CodePoolEmpty          Code = "POOL_EMPTY"
	CodePoolInvalidState   Code = "POOL_INVALID_STATE"
	CodeRollUnknownKind    Code = "ROLL_UNKNOWN_KIND"
	CodeRollInvalidFace    Code = "ROLL_INVALID_FACE"
	CodeRollInFlight       Code = "ROLL_IN_FLIGHT"
	CodeRollNotFound       Code = "ROLL_NOT_FOUND"
	CodeRollAborted        Code = "ROLL_ABORTED"
	CodeDifficultyNegative Code = "ROLL_DIFFICULTY_NEGATIVE"

	// Reroll errors
	CodeRerollNoSession             Code = "REROLL_NO_SESSION"
	CodeRerollNothingSelected       Code = "REROLL_NOTHING_SELECTED"
	CodeRerollInsufficientWillpower Code = "REROLL_INSUFFICIENT_WILLPOWER"
	CodeRerollBloodSurge            Code = "REROLL_BLOOD_SURGE"
	CodeRerollNotSelectable         Code = "REROLL_NOT_SELECTABLE"

	// Journal errors
	CodeJournalInvalidFilter    Code = "JOURNAL_INVALID_FILTER"
	CodeJournalInvalidPageToken Code = "JOURNAL_INVALID_PAGE_TOKEN"
	CodeJournalInvalidPageSize  Code = "JOURNAL_INVALID_PAGE_SIZE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad input
	case CodeCharacterInvalidSheet,
		CodePoolInvalidState,
		CodeRollUnknownKind,
		CodeRollInvalidFace,
		CodeDifficultyNegative,
		CodeRerollNotSelectable,
		CodeJournalInvalidFilter,
		CodeJournalInvalidPageToken,
		CodeJournalInvalidPageSize:
		return http.StatusBadRequest

	// State doesn't allow the operation
	case CodePoolNoSelection,
		CodePoolEmpty,
		CodeRollInFlight,
		CodeRollAborted,
		CodeRerollNoSession,
		CodeRerollNothingSelected,
		CodeRerollInsufficientWillpower,
		CodeRerollBloodSurge:
		return http.StatusConflict

	case CodeCharacterNotFound, CodeRollNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
