package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/earthnet/frame-survey/internal/data/repos"
	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/modules/survey"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

const DefaultStatsTTL = 60 * time.Second

// StatsRow is one response joined with its question, label and the
// respondent's completion.
type StatsRow struct {
	ResponseID  uint      `json:"response_id"`
	QuestionID  uint      `json:"question_id"`
	TaskID      uint      `json:"task_id"`
	UserFID     int64     `json:"user_fid"`
	Username    string    `json:"username"`
	Value       int       `json:"value"`
	SubmittedAt time.Time `json:"submitted_at"`
	Question    string    `json:"question"`
	Text        string    `json:"text"`
	Cluster     string    `json:"cluster"`
	TokenID     int64     `json:"token_id"`
}

type UserSummary struct {
	Username string `json:"username"`
	TokenID  int64  `json:"token_id"`
	UserFID  int64  `json:"user_fid"`
	Cluster  string `json:"cluster"`
}

// QuestionCounts maps question text to answer label to count.
type QuestionCounts map[string]map[string]int

type StatsService interface {
	CollectionSize(ctx context.Context, taskID uint) (int64, error)
	SurveyStats(ctx context.Context, taskID uint) (QuestionCounts, error)
	IndividualResponses(ctx context.Context, taskID uint, username string) ([]StatsRow, error)
	AllUsers(ctx context.Context, taskID uint) ([]UserSummary, error)
	AllTasks(ctx context.Context) ([]*types.Task, error)
	Task(ctx context.Context, taskID uint) (*types.Task, error)
	AllClusters(ctx context.Context, taskID uint) ([]*types.Cluster, error)
	ResponsesByCluster(ctx context.Context, taskID uint) (map[string]QuestionCounts, error)
}

type StatsDeps struct {
	Log         *logger.Logger
	Tasks       repos.TaskRepo
	Questions   repos.QuestionRepo
	Clusters    repos.ClusterRepo
	Responses   repos.ResponseRepo
	Completions repos.CompletionRepo
	Collection  CollectionSizer
	Cache       BlobCache
}

type statsService struct {
	deps  StatsDeps
	log   *logger.Logger
	ttl   time.Duration
	group singleflight.Group
}

func NewStatsService(deps StatsDeps, ttl time.Duration) StatsService {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	if deps.Cache == nil {
		deps.Cache = NewMemoryBlobCache()
	}
	return &statsService{
		deps: deps,
		log:  deps.Log.With("service", "StatsService"),
		ttl:  ttl,
	}
}

func statsKey(taskID uint) string { return "stats:rows:" + strconv.FormatUint(uint64(taskID), 10) }

func (s *statsService) requireTask(ctx context.Context, taskID uint) (*types.Task, error) {
	task, err := s.deps.Tasks.GetByID(dbctx.Context{Ctx: ctx}, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return nil, noSuchSurvey()
	}
	return task, nil
}

// rows returns the cached rows for a task, rebuilding them at most once per
// TTL window no matter how many callers miss at the same time.
func (s *statsService) rows(ctx context.Context, taskID uint) ([]StatsRow, error) {
	if _, err := s.requireTask(ctx, taskID); err != nil {
		return nil, err
	}
	key := statsKey(taskID)
	if raw, ok, err := s.deps.Cache.Get(ctx, key); err != nil {
		s.log.Warn("stats cache read failed", "task_id", taskID, "error", err)
	} else if ok {
		var rows []StatsRow
		if err := json.Unmarshal(raw, &rows); err == nil {
			return rows, nil
		}
		s.log.Warn("stats cache entry unreadable; rebuilding", "task_id", taskID)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		start := time.Now()
		rows, err := s.build(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(rows); err == nil {
			if err := s.deps.Cache.Set(ctx, key, raw, s.ttl); err != nil {
				s.log.Warn("stats cache write failed", "task_id", taskID, "error", err)
			}
		}
		s.log.Info("stats rows rebuilt", "task_id", taskID, "rows", len(rows), "took", time.Since(start).String())
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]StatsRow), nil
}

func (s *statsService) build(ctx context.Context, taskID uint) ([]StatsRow, error) {
	dbc := dbctx.Context{Ctx: ctx}
	responses, err := s.deps.Responses.ListByTask(dbc, taskID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	completions, err := s.deps.Completions.ListByTask(dbc, taskID)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}
	byFID := make(map[int64]*types.Completion, len(completions))
	for _, c := range completions {
		byFID[c.UserFID] = c
	}

	rows := make([]StatsRow, 0, len(responses))
	for _, r := range responses {
		row := StatsRow{
			ResponseID:  r.ID,
			QuestionID:  r.QuestionID,
			TaskID:      r.TaskID,
			UserFID:     r.UserFID,
			Username:    r.Username,
			Value:       r.Value,
			SubmittedAt: r.SubmittedAt,
			Text:        survey.AgreementLabel(r.Value),
		}
		if r.Question != nil {
			row.Question = r.Question.Text
		}
		if c := byFID[r.UserFID]; c != nil {
			if c.Cluster != nil {
				row.Cluster = c.Cluster.Name
			}
			if c.TokenID != nil {
				row.TokenID = *c.TokenID
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// InvalidateStats drops the cached snapshot for taskID. Processes that share
// a Redis cache with the server see the next read rebuild from the database.
func InvalidateStats(ctx context.Context, cache BlobCache, taskID uint) error {
	if cache == nil {
		return nil
	}
	return cache.Delete(ctx, statsKey(taskID))
}

func (s *statsService) CollectionSize(ctx context.Context, taskID uint) (int64, error) {
	task, err := s.requireTask(ctx, taskID)
	if err != nil {
		return 0, err
	}
	return s.deps.Collection.CollectionSize(ctx, task.Network, task.ContractAddress)
}

func (s *statsService) SurveyStats(ctx context.Context, taskID uint) (QuestionCounts, error) {
	rows, err := s.rows(ctx, taskID)
	if err != nil {
		return nil, err
	}
	out := QuestionCounts{}
	for _, r := range rows {
		out.add(r)
	}
	return out, nil
}

func (s *statsService) IndividualResponses(ctx context.Context, taskID uint, username string) ([]StatsRow, error) {
	rows, err := s.rows(ctx, taskID)
	if err != nil {
		return nil, err
	}
	out := []StatsRow{}
	for _, r := range rows {
		if r.Username == username {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *statsService) AllUsers(ctx context.Context, taskID uint) ([]UserSummary, error) {
	rows, err := s.rows(ctx, taskID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := []UserSummary{}
	for _, r := range rows {
		if seen[r.Username] {
			continue
		}
		seen[r.Username] = true
		out = append(out, UserSummary{
			Username: r.Username,
			TokenID:  r.TokenID,
			UserFID:  r.UserFID,
			Cluster:  r.Cluster,
		})
	}
	return out, nil
}

func (s *statsService) AllTasks(ctx context.Context) ([]*types.Task, error) {
	return s.deps.Tasks.List(dbctx.Context{Ctx: ctx})
}

func (s *statsService) Task(ctx context.Context, taskID uint) (*types.Task, error) {
	return s.requireTask(ctx, taskID)
}

func (s *statsService) AllClusters(ctx context.Context, taskID uint) ([]*types.Cluster, error) {
	if _, err := s.requireTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.deps.Clusters.ListByTask(dbctx.Context{Ctx: ctx}, taskID)
}

// ResponsesByCluster groups answer counts under each cluster. Respondents
// without a completion are left out.
func (s *statsService) ResponsesByCluster(ctx context.Context, taskID uint) (map[string]QuestionCounts, error) {
	rows, err := s.rows(ctx, taskID)
	if err != nil {
		return nil, err
	}
	out := map[string]QuestionCounts{}
	for _, r := range rows {
		if r.Cluster == "" {
			continue
		}
		qc, ok := out[r.Cluster]
		if !ok {
			qc = QuestionCounts{}
			out[r.Cluster] = qc
		}
		qc.add(r)
	}
	return out, nil
}

func (qc QuestionCounts) add(r StatsRow) {
	labels, ok := qc[r.Question]
	if !ok {
		labels = map[string]int{}
		qc[r.Question] = labels
	}
	labels[r.Text]++
}
