package urlgen

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
)

// Policy decides what happens when a reference cannot be resolved. One
// policy applies to a whole render pass.
type Policy string

const (
	// PolicyPlaceholder emits Placeholder(target), logs a warning and keeps rendering.
	PolicyPlaceholder Policy = "placeholder"
	// PolicyFail aborts the document's render with a ResolutionError.
	PolicyFail Policy = "fail"
)

// UnresolvedPrefix starts every placeholder URL.
const UnresolvedPrefix = "#unresolved:"

// Placeholder returns the marker URL emitted for an unresolved target.
func Placeholder(target string) string {
	return UnresolvedPrefix + target
}

// ParsePolicy parses a policy name; "" selects PolicyPlaceholder.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPlaceholder:
		return PolicyPlaceholder, nil
	case PolicyFail:
		return PolicyFail, nil
	default:
		return "", errors.ConfigError("unknown unresolved link policy").
			WithContext("policy", s).
			Build()
	}
}

// ResolutionError names the document and the target that could not be resolved.
type ResolutionError struct {
	Document string
	Target   string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unresolved link target %q in %s", e.Target, e.Document)
}
