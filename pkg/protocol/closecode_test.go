package protocol

import (
	"testing"
)

func TestClassifyClose(t *testing.T) {
	tests := []struct {
		code int
		want CloseReason
	}{
		{4001, CloseExpired},
		{4003, CloseLimit},
		{1000, CloseNormal},
		{1001, CloseNormal},
		{1006, CloseTransport},
		{1011, CloseTransport},
		{4002, CloseTransport},
		{0, CloseTransport},
		{-1, CloseTransport},
	}

	for _, tc := range tests {
		if got := ClassifyClose(tc.code); got != tc.want {
			t.Errorf("ClassifyClose(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestReconnectable(t *testing.T) {
	tests := []struct {
		reason CloseReason
		want   bool
	}{
		{CloseNormal, true},
		{CloseTransport, true},
		{CloseExpired, false},
		{CloseLimit, false},
	}

	for _, tc := range tests {
		if got := tc.reason.Reconnectable(); got != tc.want {
			t.Errorf("%v.Reconnectable() = %v, want %v", tc.reason, got, tc.want)
		}
	}
}

func TestCloseReasonString(t *testing.T) {
	for _, r := range []CloseReason{CloseNormal, CloseExpired, CloseLimit, CloseTransport} {
		if r.String() == "Unknown" {
			t.Errorf("CloseReason(%d) has no name", r)
		}
	}
	if CloseReason(99).String() != "Unknown" {
		t.Error("unnamed reason should render as Unknown")
	}
}
