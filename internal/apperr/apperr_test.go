package apperr

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
		{"validation", Validation("bad input"), KindValidation},
		{"wrapped not found", fmt.Errorf("lookup: %w", NotFound("missing")), KindNotFound},
		{"credential", Credential("cannot decrypt credentials", errors.New("tag mismatch")), KindCredential},
		{"plain error", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %s; want %s", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("timeout")
	err := Wrap(KindProvider, "provider operation failed", cause)

	if err.Error() != "provider operation failed: timeout" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable")
	}
	if !Is(err, KindProvider) {
		t.Error("expected provider kind")
	}
	if Validation("x").Error() != "x" {
		t.Error("message without cause should be returned as-is")
	}
}
