package pod

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindType covers malformed input: wrong runtime type, bad name, bad key or
	// signature encoding, unknown value type, malformed JSON value shape.
	KindType Kind = "Type"
	// KindRange covers numeric values outside the bounds of their type, and
	// JSON numbers too large to be represented safely.
	KindRange Kind = "Range"
	// KindSyntax covers unparseable numeric strings and JSON text.
	KindSyntax Kind = "Syntax"
	// KindLookup covers requests for entries absent from a POD, and packed
	// points which do not unpack to a curve point.
	KindLookup   Kind = "Lookup"
	KindCrypto   Kind = "Crypto"
	KindInternal Kind = "Internal"
)

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g. POD-NAME-001, POD-VALUE-102) naming the
// violated rule. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, format string, args ...any) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, ruleID string, cause error, format string, args ...any) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
