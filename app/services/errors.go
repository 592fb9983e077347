package services

import "github.com/pkg/errors"

var (
	// ErrForbidden is returned when the acting user may not touch a record.
	ErrForbidden = errors.New("permission denied")
	// ErrInvalidCredentials is returned by Authenticate for any login failure.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrPasswordTooLong is returned by Signup for passwords bcrypt cannot hash.
	ErrPasswordTooLong = errors.New("password is too long")
)
