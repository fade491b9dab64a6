package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist or is owned by a
// different user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when the username unique constraint fires.
var ErrDuplicateUsername = errors.New("username already taken")

// ErrDuplicateEmail is returned when the email unique constraint fires.
var ErrDuplicateEmail = errors.New("email already taken")

const uniqueViolation = "23505"

// mapUserConstraint translates a postgres unique-violation error on the
// users table into the matching sentinel.
func mapUserConstraint(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case "users_username_key":
		return ErrDuplicateUsername
	case "users_email_key":
		return ErrDuplicateEmail
	}
	return err
}
