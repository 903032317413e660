package auth

import "errors"

var (
	ErrNotFound          = errors.New("auth: not found")
	ErrAlreadyExists     = errors.New("auth: already exists")
	ErrInvalidInput      = errors.New("auth: invalid input")
	ErrUnauthorized      = errors.New("auth: unauthorized")
	ErrNotVerified       = errors.New("auth: account not verified")
	ErrSelfDeletion      = errors.New("auth: cannot delete own account")
	ErrLastAdmin         = errors.New("auth: last verified admin")
	ErrEmailMismatch     = errors.New("auth: email does not match invitation")
	ErrInvalidInvitation = errors.New("auth: invitation invalid")
)

// ErrInvalidToken indicates the session token failed validation.
var ErrInvalidToken = errors.New("invalid token")
