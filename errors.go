package auth

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes set on errors raised by this package. Response errors carry the
// backend code instead.
const (
	TextCodeTokenMalformed = goerrors.TextCodeTokenMalformed
	TextCodeNetworkError   = "NETWORK_ERROR"
	TextCodeRequestSetup   = "REQUEST_SETUP"
	TextCodeMissingAuth    = "AUTHENTICATOR_REQUIRED"
)

// statusCategory maps an HTTP status to its error category.
func statusCategory(status int) goerrors.Category {
	switch {
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusUnprocessableEntity:
		return goerrors.CategoryValidation
	case status == http.StatusConflict:
		return goerrors.CategoryConflict
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status >= http.StatusInternalServerError:
		return goerrors.CategoryInternal
	default:
		return goerrors.CategoryBadInput
	}
}

// newResponseError builds the error for a non 2xx response. code is the
// backend text code, message the backend message; either may be empty.
func newResponseError(method, path string, status int, code, message string) *goerrors.Error {
	if message == "" {
		message = http.StatusText(status)
	}
	err := goerrors.New(method+" "+path+": "+message, statusCategory(status)).
		WithCode(status).
		WithMetadata(map[string]any{
			"method": method,
			"path":   path,
		})
	if code != "" {
		err = err.WithTextCode(code)
	}
	return err
}

// decodeError is returned by DecodeToken. reason is kept in the metadata.
func decodeError(reason string, cause error) *goerrors.Error {
	var err *goerrors.Error
	if cause != nil {
		err = goerrors.Wrap(cause, goerrors.CategoryBadInput, "decode token: "+reason)
	} else {
		err = goerrors.New("decode token: "+reason, goerrors.CategoryBadInput)
	}
	return err.
		WithTextCode(TextCodeTokenMalformed).
		WithMetadata(map[string]any{"reason": reason})
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// IsTokenMalformed reports whether err came from decoding a bad token
func IsTokenMalformed(err error) bool {
	return hasTextCode(err, TextCodeTokenMalformed)
}

// IsUnauthorized reports whether err is an authentication failure
func IsUnauthorized(err error) bool {
	return goerrors.IsAuth(err)
}

// IsForbidden reports whether err is an authorization failure
func IsForbidden(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryAuthz)
}

// IsNotFound reports whether err is a not found response
func IsNotFound(err error) bool {
	return goerrors.IsNotFound(err)
}

// IsValidationError reports whether err is a local or remote validation failure
func IsValidationError(err error) bool {
	return goerrors.IsValidation(err)
}

// IsServerError reports whether err is a 5xx response
func IsServerError(err error) bool {
	return goerrors.IsInternal(err) && StatusCode(err) >= http.StatusInternalServerError
}

// IsNetworkError reports whether err means no response was received
func IsNetworkError(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryExternal) && hasTextCode(err, TextCodeNetworkError)
}

// IsRequestSetup reports whether the request could not be built locally
func IsRequestSetup(err error) bool {
	return hasTextCode(err, TextCodeRequestSetup)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code >= 100 {
		return richErr.Code
	}
	return 0
}

// ErrorTextCode returns the text code carried by err, for responses the
// backend error code.
func ErrorTextCode(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}
