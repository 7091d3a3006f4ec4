package apierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad"), KindValidation},
		{"wrapped forbidden", fmt.Errorf("confirm: %w", Forbidden("no")), KindForbidden},
		{"not found", NotFound("missing"), KindNotFound},
		{"conflict", Conflict("already processed"), KindConflict},
		{"plain error", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInternal_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)
	if !errors.Is(err, cause) {
		t.Error("expected Internal error to unwrap to its cause")
	}
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want generic message", err.Message)
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Unauthorized("login required"))
	if !Is(err, KindUnauthorized) {
		t.Error("expected Is to match wrapped kind")
	}
	if Is(err, KindForbidden) {
		t.Error("expected Is to reject other kinds")
	}
}
