package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/http/frames"
	httpH "github.com/earthnet/frame-survey/internal/http/handlers"
	"github.com/earthnet/frame-survey/internal/platform/apierr"
	"github.com/earthnet/frame-survey/internal/platform/logger"
	"github.com/earthnet/frame-survey/internal/services"
)

type fakeProgression struct {
	inputs []services.ProgressInput
	page   *services.Page
	err    error
}

func (f *fakeProgression) Progress(ctx context.Context, in services.ProgressInput) (*services.Page, error) {
	f.inputs = append(f.inputs, in)
	return f.page, f.err
}

type fakeStats struct {
	services.StatsService
	counts services.QuestionCounts
	err    error
}

func (f *fakeStats) SurveyStats(ctx context.Context, taskID uint) (services.QuestionCounts, error) {
	return f.counts, f.err
}

func (f *fakeStats) AllTasks(ctx context.Context) ([]*types.Task, error) {
	return []*types.Task{{ID: 1, Title: "Work Style"}}, nil
}

func newTestRouter(t *testing.T, prog services.ProgressionService, stats services.StatsService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	renderer := frames.NewRenderer(frames.Config{
		PublicURL: "https://frames.example.com",
		OutcomeImages: map[frames.Outcome]string{
			frames.OutcomeSuccess:          "https://cdn.example/success.png",
			frames.OutcomeAlreadyCompleted: "https://cdn.example/already.png",
			frames.OutcomeNoSuchSurvey:     "https://cdn.example/missing.png",
			frames.OutcomeFailure:          "https://cdn.example/failure.png",
		},
	})
	r, err := NewRouter(RouterConfig{
		Log:           log,
		CacheMaxAge:   10,
		HealthHandler: httpH.NewHealthHandler(nil),
		FrameHandler:  httpH.NewFrameHandler(log, prog, renderer),
		StatsHandler:  httpH.NewStatsHandler(stats),
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthcheckAndHome(t *testing.T) {
	r := newTestRouter(t, &fakeProgression{}, &fakeStats{})

	rec := do(r, http.MethodGet, "/healthcheck", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Cache-Control") != "max-age=10" {
		t.Fatalf("missing Cache-Control header")
	}

	rec = do(r, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "https://cdn.example/success.png") {
		t.Fatalf("home: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(r, http.MethodGet, "/already-completed", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "https://cdn.example/already.png") {
		t.Fatalf("already-completed: %d", rec.Code)
	}
}

func TestGetTaskRendersStartPage(t *testing.T) {
	prog := &fakeProgression{page: &services.Page{
		Kind:     services.PageStart,
		TaskID:   4,
		Title:    "Work Style",
		ImageURL: "https://cdn.example/start.png",
		Buttons:  []string{"Strongly Agree", "Agree", "Disagree", "Strongly Disagree"},
		PostPage: 1,
	}}
	r := newTestRouter(t, prog, &fakeStats{})

	rec := do(r, http.MethodGet, "/task/4", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(prog.inputs) != 1 || prog.inputs[0].TaskID != 4 || prog.inputs[0].PageNum != 0 {
		t.Fatalf("unexpected inputs: %+v", prog.inputs)
	}
	if !strings.Contains(rec.Body.String(), `content="https://frames.example.com/task/4/1"`) {
		t.Fatalf("missing post url:\n%s", rec.Body.String())
	}
}

func TestPostTaskPassesMessageBytes(t *testing.T) {
	prog := &fakeProgression{page: &services.Page{Kind: services.PageQuestion, TaskID: 4, PostPage: 3}}
	r := newTestRouter(t, prog, &fakeStats{})

	rec := do(r, http.MethodPost, "/task/4/2", `{"trustedData":{"messageBytes":"0a0b"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	in := prog.inputs[0]
	if in.PageNum != 2 || in.MessageBytes != "0a0b" {
		t.Fatalf("unexpected input: %+v", in)
	}
}

func TestPostTaskOutcomes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		image  string
	}{
		{"already completed renders ok", apierr.New(http.StatusConflict, "already_completed", services.ErrAlreadyCompleted), http.StatusOK, "already.png"},
		{"no such survey", apierr.New(http.StatusNotFound, "no_such_survey", services.ErrNoSuchSurvey), http.StatusNotFound, "missing.png"},
		{"internal failure", context.DeadlineExceeded, http.StatusInternalServerError, "failure.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeProgression{err: tc.err}, &fakeStats{})
			rec := do(r, http.MethodPost, "/task/4/5", `{"trustedData":{"messageBytes":"00"}}`)
			if rec.Code != tc.status {
				t.Fatalf("status=%d want %d", rec.Code, tc.status)
			}
			if !strings.Contains(rec.Body.String(), tc.image) {
				t.Fatalf("expected %s in body:\n%s", tc.image, rec.Body.String())
			}
		})
	}
}

func TestPostTaskRejectsMissingTrustedData(t *testing.T) {
	prog := &fakeProgression{}
	r := newTestRouter(t, prog, &fakeStats{})

	rec := do(r, http.MethodPost, "/task/4/1", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(prog.inputs) != 0 {
		t.Fatalf("progression should not run")
	}

	rec = do(r, http.MethodPost, "/task/abc/1", `{}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("non-numeric task id: %d", rec.Code)
	}
}

func TestStatsEndpoints(t *testing.T) {
	stats := &fakeStats{counts: services.QuestionCounts{"Q1": {"Agree": 2}}}
	r := newTestRouter(t, &fakeProgression{}, stats)

	rec := do(r, http.MethodGet, "/stats/survey-stats/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var got map[string]map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["Q1"]["Agree"] != 2 {
		t.Fatalf("unexpected body: %v", got)
	}

	rec = do(r, http.MethodGet, "/stats/all-tasks", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Work Style") {
		t.Fatalf("all-tasks: %d %s", rec.Code, rec.Body.String())
	}

	stats.err = apierr.New(http.StatusNotFound, "no_such_survey", services.ErrNoSuchSurvey)
	rec = do(r, http.MethodGet, "/stats/survey-stats/99", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Error.Code != "no_such_survey" {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}

	rec = do(r, http.MethodGet, "/stats/survey-stats/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid task id: %d", rec.Code)
	}
}
