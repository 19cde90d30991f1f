package google

import (
	"errors"
	"fmt"
	"net"

	"google.golang.org/api/googleapi"
)

var (
	// ErrNotConfigured is returned when the OAuth client id is unset.
	ErrNotConfigured = errors.New("google client credentials are not configured")

	// ErrAuthExchange is returned when the authorization code exchange fails.
	ErrAuthExchange = errors.New("authorization code exchange failed")

	// ErrReauthRequired is returned when no usable credential exists and the
	// OAuth flow must be re-run by the user.
	ErrReauthRequired = errors.New("authorization expired, run the auth flow again")

	// ErrUnauthorized is returned when the API rejects the current token.
	// Callers must invalidate cached credentials and require reauthentication.
	ErrUnauthorized = errors.New("google API rejected the access token")
)

// TransientError wraps a failure that is safe to retry with backoff: a 5xx
// response or a network timeout.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transient API failure (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient network failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RejectedError wraps a 4xx response other than 401. It is not retryable and
// carries the API's message verbatim.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("request rejected (HTTP %d): %s", e.Status, e.Message)
}

// classifyAPIError maps a calendar API failure into the typed taxonomy:
// 401 -> ErrUnauthorized, >=500 or timeout -> TransientError, remaining
// 4xx -> RejectedError. Anything unrecognized passes through wrapped.
func classifyAPIError(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401:
			return fmt.Errorf("%s: %w", op, ErrUnauthorized)
		case apiErr.Code >= 500:
			return fmt.Errorf("%s: %w", op, &TransientError{Status: apiErr.Code, Err: err})
		case apiErr.Code >= 400:
			return fmt.Errorf("%s: %w", op, &RejectedError{Status: apiErr.Code, Message: apiErr.Message})
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w", op, &TransientError{Err: err})
	}

	return fmt.Errorf("%s: %w", op, err)
}

// IsTransient reports whether err is safe to retry with backoff.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
