package google

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, got error)
	}{
		{
			name: "401 maps to unauthorized",
			err:  &googleapi.Error{Code: 401, Message: "Invalid Credentials"},
			check: func(t *testing.T, got error) {
				if !errors.Is(got, ErrUnauthorized) {
					t.Errorf("got %v, want ErrUnauthorized", got)
				}
			},
		},
		{
			name: "500 maps to transient",
			err:  &googleapi.Error{Code: 500, Message: "Backend Error"},
			check: func(t *testing.T, got error) {
				if !IsTransient(got) {
					t.Errorf("got %v, want transient", got)
				}
			},
		},
		{
			name: "503 maps to transient",
			err:  &googleapi.Error{Code: 503, Message: "Service Unavailable"},
			check: func(t *testing.T, got error) {
				if !IsTransient(got) {
					t.Errorf("got %v, want transient", got)
				}
			},
		},
		{
			name: "timeout maps to transient",
			err:  fmt.Errorf("request failed: %w", timeoutError{}),
			check: func(t *testing.T, got error) {
				if !IsTransient(got) {
					t.Errorf("got %v, want transient", got)
				}
			},
		},
		{
			name: "404 maps to rejected",
			err:  &googleapi.Error{Code: 404, Message: "Not Found"},
			check: func(t *testing.T, got error) {
				var rejected *RejectedError
				if !errors.As(got, &rejected) {
					t.Fatalf("got %v, want RejectedError", got)
				}
				if rejected.Status != 404 {
					t.Errorf("status = %d, want 404", rejected.Status)
				}
				if rejected.Message != "Not Found" {
					t.Errorf("message = %q, want verbatim API message", rejected.Message)
				}
			},
		},
		{
			name: "rejected is not transient",
			err:  &googleapi.Error{Code: 400, Message: "Bad Request"},
			check: func(t *testing.T, got error) {
				if IsTransient(got) {
					t.Errorf("4xx must not be transient: %v", got)
				}
				if errors.Is(got, ErrUnauthorized) {
					t.Errorf("4xx other than 401 must not be unauthorized: %v", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, classifyAPIError("op", tt.err))
		})
	}
}

func TestClassifyAPIErrorNil(t *testing.T) {
	if got := classifyAPIError("op", nil); got != nil {
		t.Errorf("classifyAPIError(nil) = %v, want nil", got)
	}
}
