package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/earthnet/frame-survey/internal/http/frames"
	"github.com/earthnet/frame-survey/internal/platform/apierr"
	"github.com/earthnet/frame-survey/internal/platform/logger"
	"github.com/earthnet/frame-survey/internal/services"
)

type frameSignature struct {
	TrustedData struct {
		MessageBytes string `json:"messageBytes"`
	} `json:"trustedData"`
}

type FrameHandler struct {
	log         *logger.Logger
	progression services.ProgressionService
	renderer    *frames.Renderer
}

func NewFrameHandler(log *logger.Logger, progression services.ProgressionService, renderer *frames.Renderer) *FrameHandler {
	return &FrameHandler{
		log:         log.With("handler", "FrameHandler"),
		progression: progression,
		renderer:    renderer,
	}
}

// GET /
func (h *FrameHandler) Home(c *gin.Context) {
	h.render(c, http.StatusOK, h.renderer.Outcome(frames.OutcomeSuccess))
}

// GET /already-completed
func (h *FrameHandler) AlreadyCompleted(c *gin.Context) {
	h.render(c, http.StatusOK, h.renderer.Outcome(frames.OutcomeAlreadyCompleted))
}

// GET /task/:task_id
func (h *FrameHandler) GetTask(c *gin.Context) {
	taskID, ok := h.taskID(c)
	if !ok {
		return
	}
	h.progress(c, services.ProgressInput{TaskID: taskID})
}

// POST /task/:task_id/:page_num
func (h *FrameHandler) PostTask(c *gin.Context) {
	taskID, ok := h.taskID(c)
	if !ok {
		return
	}
	page, err := strconv.Atoi(c.Param("page_num"))
	if err != nil || page < 0 {
		h.render(c, http.StatusBadRequest, h.renderer.Outcome(frames.OutcomeInvalidMessage))
		return
	}

	var sig frameSignature
	if page > 0 {
		if err := c.ShouldBindJSON(&sig); err != nil || sig.TrustedData.MessageBytes == "" {
			h.log.Warn("frame post without trusted data", "task_id", taskID, "page", page)
			h.render(c, http.StatusBadRequest, h.renderer.Outcome(frames.OutcomeInvalidMessage))
			return
		}
	}
	h.progress(c, services.ProgressInput{
		TaskID:       taskID,
		PageNum:      page,
		MessageBytes: sig.TrustedData.MessageBytes,
	})
}

func (h *FrameHandler) taskID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("task_id"), 10, 64)
	if err != nil {
		h.render(c, http.StatusNotFound, h.renderer.Outcome(frames.OutcomeNoSuchSurvey))
		return 0, false
	}
	return uint(id), true
}

func (h *FrameHandler) progress(c *gin.Context, in services.ProgressInput) {
	page, err := h.progression.Progress(c.Request.Context(), in)
	if err != nil {
		outcome, status := outcomeFor(err)
		if status >= 500 {
			h.log.Error("frame request failed", "task_id", in.TaskID, "page", in.PageNum, "error", err)
		}
		h.render(c, status, h.renderer.Outcome(outcome))
		return
	}
	h.render(c, http.StatusOK, h.renderer.Page(page))
}

func (h *FrameHandler) render(c *gin.Context, status int, v frames.View) {
	c.HTML(status, frames.TemplateName, v)
}

// outcomeFor picks the card and status for a progression error. An already
// completed survey is a normal card for frame clients, so it renders 200.
func outcomeFor(err error) (frames.Outcome, int) {
	status, _ := apierr.StatusOf(err, http.StatusInternalServerError)
	switch {
	case errors.Is(err, services.ErrAlreadyCompleted):
		return frames.OutcomeAlreadyCompleted, http.StatusOK
	case errors.Is(err, services.ErrNoSuchSurvey):
		return frames.OutcomeNoSuchSurvey, status
	case errors.Is(err, services.ErrInvalidMessage):
		return frames.OutcomeInvalidMessage, status
	case errors.Is(err, services.ErrNoAddress):
		return frames.OutcomeNoAddress, status
	case errors.Is(err, services.ErrIncomplete):
		return frames.OutcomeIncomplete, status
	default:
		return frames.OutcomeFailure, http.StatusInternalServerError
	}
}
