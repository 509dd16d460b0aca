package pod

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorTaxonomy_LookupRuleID(t *testing.T) {
	content, err := ContentFromEntries(Entries{"a": NewIntValue(1)})
	if err != nil {
		t.Fatalf("ContentFromEntries: %v", err)
	}
	_, err = content.GenerateEntryProof("b")
	if err == nil {
		t.Fatalf("expected error")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected structured *pod.Error, got %T", err)
	}
	if e.Kind != KindLookup {
		t.Fatalf("expected KindLookup, got %s", e.Kind)
	}
	if e.RuleID != "POD-LOOKUP-001" {
		t.Fatalf("expected RuleID POD-LOOKUP-001, got %s", e.RuleID)
	}
}

func TestErrorTaxonomy_WrappedCause(t *testing.T) {
	_, err := UnmarshalJSONEntries([]byte(`{"a":`))
	if err == nil {
		t.Fatalf("expected error")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected structured *pod.Error, got %T", err)
	}
	if e.Cause == nil {
		t.Fatalf("expected decoder error as cause")
	}
	if errors.Unwrap(err) != e.Cause {
		t.Fatalf("Unwrap did not return cause")
	}

	// Still classifiable after further wrapping.
	wrapped := fmt.Errorf("load ballot: %w", err)
	if !IsKind(wrapped, KindSyntax) {
		t.Fatalf("expected KindSyntax through wrapping")
	}
	if RuleID(wrapped) != "POD-JSON-022" {
		t.Fatalf("expected RuleID POD-JSON-022, got %s", RuleID(wrapped))
	}
}

func TestErrorTaxonomy_NonPODError(t *testing.T) {
	err := errors.New("plain")
	if IsKind(err, KindType) {
		t.Fatalf("plain error should not have a kind")
	}
	if RuleID(err) != "" {
		t.Fatalf("plain error should not have a RuleID")
	}
}
