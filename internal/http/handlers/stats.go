package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/earthnet/frame-survey/internal/http/response"
	"github.com/earthnet/frame-survey/internal/services"
)

type StatsHandler struct {
	stats services.StatsService
}

func NewStatsHandler(stats services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func parseTaskID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("task_id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_task_id", err)
		return 0, false
	}
	return uint(id), true
}

// GET /stats/collection-size/:task_id
func (h *StatsHandler) CollectionSize(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}
	size, err := h.stats.CollectionSize(c.Request.Context(), taskID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, size)
}

// GET /stats/survey-stats/:task_id
func (h *StatsHandler) SurveyStats(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}
	out, err := h.stats.SurveyStats(c.Request.Context(), taskID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /stats/individual-responses/:task_id/:username
func (h *StatsHandler) IndividualResponses(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}
	username := strings.TrimSpace(c.Param("username"))
	rows, err := h.stats.IndividualResponses(c.Request.Context(), taskID, username)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /stats/all-users/:task_id
func (h *StatsHandler) AllUsers(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}
	users, err := h.stats.AllUsers(c.Request.Context(), taskID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, users)
}

// GET /stats/all-tasks
func (h *StatsHandler) AllTasks(c *gin.Context) {
	tasks, err := h.stats.AllTasks(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, tasks)
}

// GET /stats/task/:task_id
func (h *StatsHandler) Task(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}
	task, err := h.stats.Task(c.Request.Context(), taskID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, task)
}

// GET /stats/all-clusters/:task_id
func (h *StatsHandler) AllClusters(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}
	clusters, err := h.stats.AllClusters(c.Request.Context(), taskID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, clusters)
}

// GET /stats/responses-by-cluster/:task_id
func (h *StatsHandler) ResponsesByCluster(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}
	out, err := h.stats.ResponsesByCluster(c.Request.Context(), taskID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}
