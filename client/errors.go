package client

import (
	"errors"
	"fmt"
)

// Graph API error codes that indicate an authentication or authorization
// problem rather than a transient failure.
const (
	errCodeAPISession   = 102 // session expired or invalidated
	errCodeAccessToken  = 190 // invalid or expired access token
	errCodePermission   = 200 // permission not granted
	errSubcodeExpired   = 463
	errSubcodeRevoked   = 467
	oauthExceptionType  = "OAuthException"
)

// ErrNoAccount is returned when the client is constructed without a connected
// Instagram business account or access token.
var ErrNoAccount = errors.New("no instagram business account configured")

// APIError is a request-level Graph API failure. It carries the upstream
// error envelope so callers can distinguish auth failures from generic ones.
type APIError struct {
	StatusCode int
	Code       int
	Subcode    int
	Type       string
	Message    string
	FBTraceID  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("graph api error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph api error (status %d)", e.StatusCode)
}

// IsAuthError reports whether the failure is an authentication/authorization
// problem (invalid token, expired session, missing permission).
func (e *APIError) IsAuthError() bool {
	if e.Type == oauthExceptionType {
		return true
	}
	switch e.Code {
	case errCodeAPISession, errCodeAccessToken, errCodePermission:
		return true
	}
	switch e.Subcode {
	case errSubcodeExpired, errSubcodeRevoked:
		return true
	}
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsAuthError reports whether err wraps an authentication failure, including
// the missing-account sentinel.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrNoAccount) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuthError()
}
