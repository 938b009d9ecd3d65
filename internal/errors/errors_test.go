package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestDisplayTotal(t *testing.T) {
	for code := range registry {
		text := Display(code)
		if text == "" {
			t.Errorf("Display(%q) is empty", code)
		}
		if text == code {
			t.Errorf("Display(%q) leaks the internal identifier", code)
		}
	}
}

func TestDisplayFallback(t *testing.T) {
	got := Display("no_such_code_ever")
	if got != fallback.Message {
		t.Errorf("Display(unknown) = %q, want fallback %q", got, fallback.Message)
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("made_up")
	if err.Code != "made_up" {
		t.Errorf("Code = %q", err.Code)
	}
	if err.Message != fallback.Message {
		t.Errorf("Message = %q, want fallback", err.Message)
	}
}

func TestErrorFormatting(t *testing.T) {
	err := New(CodeTimeout)
	if got := err.Error(); got != "timeout: The controller did not respond in time" {
		t.Errorf("Error() = %q", got)
	}

	err = New(CodeServer).WithDetail("not found")
	if got := err.Error(); got != "server_error: not found" {
		t.Errorf("Error() with detail = %q", got)
	}
	if got := err.Display(); got != "The controller reported an error (not found)" {
		t.Errorf("Display() = %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := New(CodeNetwork).WithCause(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestIs(t *testing.T) {
	err := New(CodeUnauthorized)
	if !Is(err, CodeUnauthorized) {
		t.Error("Is() missed a direct match")
	}
	if Is(err, CodeTimeout) {
		t.Error("Is() matched the wrong code")
	}

	wrapped := fmt.Errorf("enable plugin: %w", err)
	if !Is(wrapped, CodeUnauthorized) {
		t.Error("Is() missed a wrapped match")
	}

	if Is(nil, CodeTimeout) {
		t.Error("Is(nil) should be false")
	}
	if Is(stderrors.New("plain"), CodeTimeout) {
		t.Error("Is(plain error) should be false")
	}
}
