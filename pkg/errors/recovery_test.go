package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRecover_WithPanic(t *testing.T) {
	fit := func() (err error) {
		defer Recover(&err, "SVC.Fit")
		panic("mat: dimension mismatch")
	}

	err := fit()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "SVC.Fit" {
		t.Errorf("Operation = %q, want %q", panicErr.Operation, "SVC.Fit")
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	if got, want := panicErr.Error(), "panic in SVC.Fit: mat: dimension mismatch"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !strings.Contains(panicErr.String(), "Stack trace:") {
		t.Error("String() should include the stack trace")
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	fit := func() (err error) {
		defer Recover(&err, "SVC.Fit")
		return nil
	}

	if err := fit(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	original := fmt.Errorf("lbfgs did not start")

	fit := func() (err error) {
		defer Recover(&err, "LogisticRegression.Fit")
		err = original
		panic("index out of range")
	}

	err := fit()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, original) {
		t.Error("Original error should remain in the chain")
	}
	if !strings.Contains(err.Error(), "panic in LogisticRegression.Fit") {
		t.Errorf("Error message should mention the panic: %s", err)
	}
}

func TestSafeExecute(t *testing.T) {
	sentinel := fmt.Errorf("function error")

	tests := []struct {
		name      string
		fn        func() error
		wantNil   bool
		wantPanic bool
		wantErr   error
	}{
		{name: "success", fn: func() error { return nil }, wantNil: true},
		{name: "returned error", fn: func() error { return sentinel }, wantErr: sentinel},
		{name: "panic", fn: func() error { panic("boom") }, wantPanic: true},
		{name: "error panic", fn: func() error { panic(sentinel) }, wantPanic: true, wantErr: sentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("op", tt.fn)
			if tt.wantNil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			var panicErr *PanicError
			if got := errors.As(err, &panicErr); got != tt.wantPanic {
				t.Errorf("errors.As(PanicError) = %v, want %v", got, tt.wantPanic)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("errors.Is(%v) = false", tt.wantErr)
			}
		})
	}
}
