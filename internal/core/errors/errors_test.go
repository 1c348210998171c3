package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDomainErrorMessage(t *testing.T) {
	err := New(CodeMissingExport, "component not found")
	if !strings.Contains(err.Error(), "MISSING_EXPORT") {
		t.Errorf("expected code in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "component not found") {
		t.Errorf("expected message, got %q", err.Error())
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := fmt.Errorf("read failed")
	err := Wrap(cause, CodeParseFailure, "cannot parse module")
	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if !IsCode(err, CodeParseFailure) {
		t.Error("IsCode failed on wrapped error")
	}
	if IsCode(err, CodeInternal) {
		t.Error("IsCode matched wrong code")
	}
}

func TestAddContext(t *testing.T) {
	err := New(CodeMissingExport, "missing")
	err = AddContext(err, CtxExport, "Counter")
	err = AddContext(err, CtxModule, "./src/Counter.tsx")

	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("expected DomainError")
	}
	if de.Context[CtxExport] != "Counter" {
		t.Errorf("context not preserved: %v", de.Context)
	}
	if !strings.Contains(err.Error(), "Counter") {
		t.Errorf("context missing from message: %q", err.Error())
	}
}

func TestAddContextPlainError(t *testing.T) {
	err := AddContext(fmt.Errorf("boom"), CtxOperation, "render")
	if !IsCode(err, CodeInternal) {
		t.Error("plain errors should be wrapped as internal")
	}
}
