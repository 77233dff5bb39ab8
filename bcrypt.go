package portal

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor. Tests drop it to bcrypt.MinCost.
var HashCost = bcrypt.DefaultCost

// HashPassword will generate a password hash. Every call embeds a fresh
// random salt, so equal inputs never produce equal outputs.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// RandomPasswordHash returns the hash of a throwaway random password. Login
// compares against it when no account matches, so both failure paths pay the
// same bcrypt cost.
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. bcrypt's comparison is constant-time with respect to
// where a mismatch occurs; a malformed hash is reported as a plain mismatch.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		// truncated or hand-edited hashes land here too
		return ErrMismatchedHashAndPassword
	}
	return nil
}
