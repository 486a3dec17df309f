package domain

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProcessNotFound = errors.New("process not found")

	// Configuration errors, rejected before any extraction starts.
	ErrUnknownProvider       = errors.New("unknown provider")
	ErrUnknownSetting        = errors.New("unknown provider setting")
	ErrUnknownColumn         = errors.New("unknown column")
	ErrDuplicateColumn       = errors.New("column name already exists")
	ErrProviderNotConfigured = errors.New("provider is not configured")
	ErrNoProviders           = errors.New("at least one provider is required")
	ErrInvalidScope          = errors.New("invalid row filter")
	ErrUnsupportedFormat     = errors.New("unsupported dataset format")
	ErrExportStorageDisabled = errors.New("export storage is not configured")

	// Structural invariant violations. These mean a change object and the
	// dataset disagree and the operation must not continue.
	ErrStructuralViolation = errors.New("structural invariant violation")
	ErrInvalidChangeState  = errors.New("invalid change state")
	ErrMalformedChange     = errors.New("malformed serialized change")

	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrCanceled signals a cooperative stop. No result is produced.
	ErrCanceled = errors.New("extraction canceled")
)
