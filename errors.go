package portal

import (
	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// login banner never reveals which half of the pair failed.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateEmail is surfaced by the store when the unique constraint on
// users.email rejects an insert or update.
var ErrDuplicateEmail = errors.New("email already exists", errors.CategoryConflict).
	WithTextCode("DUPLICATE_EMAIL").
	WithCode(errors.CodeConflict)

// ErrUserNotFound is the not-found sentinel for credential store lookups.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrNoSession is returned when a request carries no authenticated session.
var ErrNoSession = errors.New("no authenticated session", errors.CategoryAuth).
	WithTextCode("NO_SESSION").
	WithCode(errors.CodeUnauthorized)

// ErrGuestRestricted marks operations guest sessions may not perform.
var ErrGuestRestricted = errors.New("guest accounts cannot perform this action", errors.CategoryAuth).
	WithTextCode("GUEST_RESTRICTED").
	WithCode(errors.CodeForbidden)

// ErrMismatchedHashAndPassword is the hasher's mismatch error. A malformed
// stored hash maps here too: it must read as "wrong password", never crash.
var ErrMismatchedHashAndPassword = errors.New("hash and password mismatch", errors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH").
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty input to the hasher.
var ErrNoEmptyString = errors.New("value cannot be an empty string", errors.CategoryValidation).
	WithTextCode("EMPTY_STRING").
	WithCode(errors.CodeBadRequest)
