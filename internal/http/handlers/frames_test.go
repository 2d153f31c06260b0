package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/earthnet/frame-survey/internal/http/frames"
	"github.com/earthnet/frame-survey/internal/platform/apierr"
	"github.com/earthnet/frame-survey/internal/services"
)

func TestOutcomeFor(t *testing.T) {
	cases := []struct {
		err     error
		outcome frames.Outcome
		status  int
	}{
		{apierr.New(http.StatusNotFound, "no_such_survey", services.ErrNoSuchSurvey), frames.OutcomeNoSuchSurvey, http.StatusNotFound},
		{apierr.New(http.StatusUnauthorized, "invalid_message", services.ErrInvalidMessage), frames.OutcomeInvalidMessage, http.StatusUnauthorized},
		{apierr.New(http.StatusBadRequest, "invalid_button", services.ErrInvalidMessage), frames.OutcomeInvalidMessage, http.StatusBadRequest},
		{apierr.New(http.StatusConflict, "already_completed", services.ErrAlreadyCompleted), frames.OutcomeAlreadyCompleted, http.StatusOK},
		{apierr.New(http.StatusUnprocessableEntity, "no_address", services.ErrNoAddress), frames.OutcomeNoAddress, http.StatusUnprocessableEntity},
		{apierr.New(http.StatusConflict, "incomplete", services.ErrIncomplete), frames.OutcomeIncomplete, http.StatusConflict},
		{fmt.Errorf("collection size: %w", errors.New("relay down")), frames.OutcomeFailure, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		outcome, status := outcomeFor(tc.err)
		if outcome != tc.outcome || status != tc.status {
			t.Fatalf("outcomeFor(%v) = (%s,%d) want (%s,%d)", tc.err, outcome, status, tc.outcome, tc.status)
		}
	}
}
