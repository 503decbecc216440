package service

import (
	"errors"

	"github.com/sifan077/tinylink/internal/app/repository"
)

var (
	ErrInvalidURL          = errors.New("invalid target url")
	ErrInvalidCode         = errors.New("custom code must be 6-8 alphanumeric characters")
	ErrCodeExists          = errors.New("code already exists")
	ErrGenerationExhausted = errors.New("failed to generate a unique code")

	// Store errors surface unchanged so callers only need this package.
	ErrLinkNotFound     = repository.ErrLinkNotFound
	ErrStoreUnavailable = repository.ErrStoreUnavailable
)
