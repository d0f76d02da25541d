package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes exposed to API clients alongside the structured error payload.
const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeInvalidSession     = "INVALID_SESSION"
	TextCodeAccountDisabled    = "ACCOUNT_DISABLED"
	TextCodeInsufficientScope  = "INSUFFICIENT_SCOPE"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeDuplicateResource  = "DUPLICATE_RESOURCE"
	TextCodeResetTokenInvalid  = "RESET_TOKEN_INVALID"
	TextCodeEmailDelivery      = "EMAIL_DELIVERY_FAILURE"
)

// ErrIdentityNotFound is returned when no account matches the identifier.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is the only error callers see for a failed
// password comparison, whether the digest mismatched or was malformed.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty cleartext passwords before hashing.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned when a bearer token fails validation on expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers every non-expiry token validation failure: bad
// signature, wrong signing method, garbage input.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidSession is returned when a decoded token does not resolve to a
// usable account: empty subject, unknown subject, or deleted row.
var ErrInvalidSession = goerrors.New("could not validate credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidSession).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountDisabled is returned when the live account row is disabled.
var ErrAccountDisabled = goerrors.New("account is disabled", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(goerrors.CodeUnauthorized)

// ErrInsufficientScope is the authorization failure: the caller authenticated
// but the live account is missing at least one required scope.
var ErrInsufficientScope = goerrors.New("not enough permissions", goerrors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientScope).
	WithCode(goerrors.CodeForbidden)

// ErrResetTokenInvalid covers unknown, expired, and already consumed
// password-reset tokens; callers cannot distinguish the three.
var ErrResetTokenInvalid = goerrors.New("invalid or expired reset token", goerrors.CategoryValidation).
	WithTextCode(TextCodeResetTokenInvalid).
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// ClassifyDatabaseError maps raw storage errors into the service taxonomy.
// Duplicate-key violations become conflicts; already classified errors pass
// through untouched; anything else is an opaque internal storage failure.
func ClassifyDatabaseError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}

	if isDuplicateKeyError(err) {
		return goerrors.Wrap(err, goerrors.CategoryConflict, msg).
			WithTextCode(TextCodeDuplicateResource).
			WithCode(goerrors.CodeConflict)
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}

// isDuplicateKeyError inspects driver error text since pgdriver and sqlite
// surface unique violations with different concrete types.
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed")
}

// ClassifyEmailError wraps mail transport failures with the delivery text
// code so callers can log and surface them without treating them as fatal.
func ClassifyEmailError(err error) error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}
	return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send email").
		WithTextCode(TextCodeEmailDelivery)
}
