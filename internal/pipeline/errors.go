package pipeline

import (
	"errors"

	"github.com/samthedataman/resumably/internal/repository"
)

var (
	// ErrNotFound is returned when a referenced record does not exist for the user
	ErrNotFound = repository.ErrNotFound
	// ErrNoResume is returned when a draft is requested without any resume to tailor
	ErrNoResume = errors.New("no resume found, create one first")
	// ErrInvalidTransition is returned when a draft cannot move to the requested status
	ErrInvalidTransition = errors.New("invalid draft status transition")
)
