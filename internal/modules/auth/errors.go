package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotMember          = errors.New("user is not a member of the requested organization")
)
