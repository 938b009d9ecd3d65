package main

import (
	"errors"
	"fmt"
	"testing"

	booterrors "github.com/starrain-dev/botctl/internal/errors"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "not running"},
		{-5, "not running"},
		{42, "42s"},
		{90, "1m30s"},
		{3600, "1h0m"},
		{5400, "1h30m"},
		{86400, "1d0h"},
		{93600, "1d2h"},
		{266400, "3d2h"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.seconds); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestDisplayError(t *testing.T) {
	structured := booterrors.New(booterrors.CodeUnauthorized)
	if got := displayError(structured); got != booterrors.Display(booterrors.CodeUnauthorized) {
		t.Errorf("displayError(structured) = %q", got)
	}

	// Structured errors are found even when wrapped.
	wrapped := fmt.Errorf("status: %w", booterrors.New(booterrors.CodeTimeout))
	if got := displayError(wrapped); got != booterrors.Display(booterrors.CodeTimeout) {
		t.Errorf("displayError(wrapped) = %q", got)
	}

	plain := errors.New("dial tcp: connection refused")
	if got := displayError(plain); got != plain.Error() {
		t.Errorf("displayError(plain) = %q", got)
	}
}
