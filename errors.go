package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced in API error payloads. They match the codes the
// mobile and web clients already key their error handling on.
const (
	TextCodeUnauthorized        = "AUTH_001"
	TextCodeInvalidCreds        = "AUTH_002"
	TextCodeInvalidToken        = "AUTH_003"
	TextCodeTokenExpired        = "AUTH_004"
	TextCodeInvalidRefreshToken = "AUTH_005"
	TextCodeUserNotFound        = "USER_001"
	TextCodeEmailTaken          = "USER_002"
	TextCodePasswordMismatch    = "USER_003"
	TextCodeTermsNotAgreed      = "USER_004"
	TextCodeValidation          = "COMMON_001"
	TextCodeForbidden           = "COMMON_002"
	TextCodeInternal            = "COMMON_999"
)

// ErrUnauthorized is returned when a request carries no usable bearer token.
var ErrUnauthorized = errors.New("authentication required", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrMismatchedHashAndPassword is returned when credentials do not match.
// Unknown emails map to the same error so responses cannot be used to
// probe which addresses have accounts.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrTokenMalformed is returned for tokens that fail signature or
// structural validation for any reason other than expiry.
var ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidToken)

// ErrTokenExpired is returned for well formed tokens past their exp claim.
var ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrInvalidRefreshToken is returned when a refresh token has no live
// server-side session record, including replayed tokens after rotation.
var ErrInvalidRefreshToken = errors.New("invalid refresh token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidRefreshToken)

// ErrUserNotFound is returned when an operation targets a missing or
// deactivated account.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrEmailTaken is returned on signup against an already registered email.
var ErrEmailTaken = errors.New("email already registered", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode(TextCodeEmailTaken)

// ErrPasswordMismatch is returned when a password and its confirmation differ.
var ErrPasswordMismatch = errors.New("passwords do not match", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodePasswordMismatch)

// ErrTermsNotAgreed is returned when signup lacks the required agreements.
var ErrTermsNotAgreed = errors.New("terms of service and privacy policy must be accepted", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeTermsNotAgreed)

// ErrForbidden is returned when an authenticated caller lacks access.
var ErrForbidden = errors.New("access denied", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrNoEmptyString is returned when asked to hash an empty password.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeValidation)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
