package services

import (
	"errors"
	"net/http"

	"github.com/earthnet/frame-survey/internal/platform/apierr"
)

var (
	ErrNoSuchSurvey     = errors.New("no such survey")
	ErrInvalidMessage   = errors.New("invalid frame message")
	ErrAlreadyCompleted = errors.New("survey already completed")
	ErrNoAddress        = errors.New("no verified address to mint to")
	ErrIncomplete       = errors.New("no answers recorded for this survey")
)

func noSuchSurvey() error {
	return apierr.New(http.StatusNotFound, "no_such_survey", ErrNoSuchSurvey)
}

func invalidMessage(status int, code string) error {
	return apierr.New(status, code, ErrInvalidMessage)
}

func alreadyCompleted() error {
	return apierr.New(http.StatusConflict, "already_completed", ErrAlreadyCompleted)
}

func noAddress() error {
	return apierr.New(http.StatusUnprocessableEntity, "no_address", ErrNoAddress)
}

func incomplete() error {
	return apierr.New(http.StatusConflict, "incomplete", ErrIncomplete)
}
