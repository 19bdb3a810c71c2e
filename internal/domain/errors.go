package domain

import "fmt"

// MaintError is the unified error type for the engine.
// Each error has a numeric code and human-readable message.
type MaintError struct {
	Code    int
	Message string
	// Field names the offending field for validation failures.
	Field string
}

// Error implements the error interface.
func (e *MaintError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("maintenance error %d: field %q: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("maintenance error %d: %s", e.Code, e.Message)
}

// Is matches MaintErrors by code so sentinel comparisons survive the
// field/message specialization done by NewMaintError and FieldError.
func (e *MaintError) Is(target error) bool {
	t, ok := target.(*MaintError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewMaintError creates a MaintError with a specialized message.
func NewMaintError(code int, msg string) *MaintError {
	return &MaintError{Code: code, Message: msg}
}

// FieldError creates a MaintError carrying the offending field name.
func FieldError(code int, field, msg string) *MaintError {
	return &MaintError{Code: code, Message: msg, Field: field}
}

// ---- Governance errors (-33010 to -33039) ----

var (
	ErrCollectionDenied  = &MaintError{Code: -33010, Message: "collection cannot be edited manually; use the dedicated screen for this data"}
	ErrCollectionUnknown = &MaintError{Code: -33011, Message: "collection is not in the allowlist for manual editing"}
	ErrProtectedField    = &MaintError{Code: -33012, Message: "protected field cannot be edited"}
	ErrMissingReason     = &MaintError{Code: -33013, Message: "reason required"}
	ErrValidationFailed  = &MaintError{Code: -33014, Message: "field value failed validation"}
	ErrReferenceMissing  = &MaintError{Code: -33015, Message: "referenced document does not exist"}
	ErrNoChanges         = &MaintError{Code: -33016, Message: "mutation request contains no changes"}
)

// ---- Store errors (-33040 to -33069) ----

var (
	ErrDocumentNotFound = &MaintError{Code: -33040, Message: "document not found"}
	ErrWriteConflict    = &MaintError{Code: -33041, Message: "document was modified concurrently"}
	ErrStoreInit        = &MaintError{Code: -33042, Message: "failed to initialize store"}
	ErrStoreQuery       = &MaintError{Code: -33043, Message: "store query failed"}
	ErrStoreWrite       = &MaintError{Code: -33044, Message: "store write failed"}
	ErrAuditWrite       = &MaintError{Code: -33045, Message: "audit record write failed"}
)

// ---- Config / policy errors (-33070 to -33099) ----

var (
	ErrConfigInvalid = &MaintError{Code: -33070, Message: "invalid configuration"}
	ErrPolicyInvalid = &MaintError{Code: -33071, Message: "invalid governance policy"}
)
