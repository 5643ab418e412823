package core

import (
	"errors"

	"selfsight.app/journal/internal/store"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = store.ErrNotFound
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
