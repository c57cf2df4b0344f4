package render

import "errors"

// Faults returned by this package are classified errors whose cause is one
// of these sentinels, so callers can match them with errors.Is.
var (
	ErrUnknownFormat   = errors.New("no formatter registered for format")
	ErrContextNotBound = errors.New("render context is not bound to a document")
	ErrNoNode          = errors.New("document has no parsed node")
	ErrMissingSource   = errors.New("documentation set has no source path")
	ErrWriteFailed     = errors.New("failed to write rendered document")
	ErrGuidesDisabled  = errors.New("guide rendering is switched off")
)
