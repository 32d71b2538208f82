package service

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned when the caller does not own the entity.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidToken is returned when a presented token matches no user.
	ErrInvalidToken = errors.New("invalid token")
)

// Actions guarded by the ownership rule.
const (
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ForbiddenError names the action a non-owner attempted. It matches
// ErrForbidden under errors.Is.
type ForbiddenError struct {
	EntityID int64
	Action   string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("entity %d: you can only %s your own entities", e.EntityID, e.Action)
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}
