package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestInvalidInput(t *testing.T) {
	err := fmt.Errorf("register: %w", InvalidInput("password is longer than 72 bytes"))

	if !errors.Is(err, ErrorInvalidInput) {
		t.Fatalf("expected %v to match ErrorInvalidInput", err)
	}
	if errors.Is(err, ErrorUnauthorized) {
		t.Fatalf("unexpected match with ErrorUnauthorized")
	}

	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected an *InputError in %v", err)
	}
	if inputErr.Reason != "password is longer than 72 bytes" {
		t.Fatalf("reason = %q", inputErr.Reason)
	}
}
