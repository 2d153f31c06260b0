package services

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/earthnet/frame-survey/internal/data/repos"
	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

// QuestionCache holds each task's ordered question list. Setup writes a task
// and its questions in one transaction and never edits them afterwards, so a
// non-empty entry stays valid until Invalidate. Empty lists are not kept.
type QuestionCache struct {
	log   *logger.Logger
	repo  repos.QuestionRepo
	group singleflight.Group

	mu     sync.RWMutex
	byTask map[uint][]*types.Question
}

func NewQuestionCache(baseLog *logger.Logger, repo repos.QuestionRepo) *QuestionCache {
	return &QuestionCache{
		log:    baseLog.With("service", "QuestionCache"),
		repo:   repo,
		byTask: map[uint][]*types.Question{},
	}
}

// Get returns the task's questions ordered by sequence number. Callers must
// not mutate the returned slice. Must not be called while holding an open
// transaction on a single-connection database.
func (c *QuestionCache) Get(ctx context.Context, taskID uint) ([]*types.Question, error) {
	c.mu.RLock()
	qs, ok := c.byTask[taskID]
	c.mu.RUnlock()
	if ok {
		return qs, nil
	}

	v, err, _ := c.group.Do(strconv.FormatUint(uint64(taskID), 10), func() (any, error) {
		c.mu.RLock()
		cached, ok := c.byTask[taskID]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		loaded, err := c.repo.ListByTask(dbctx.Context{Ctx: ctx}, taskID)
		if err != nil {
			return nil, err
		}
		if len(loaded) == 0 {
			return []*types.Question{}, nil
		}
		c.mu.Lock()
		c.byTask[taskID] = loaded
		c.mu.Unlock()
		c.log.Debug("question cache filled", "task_id", taskID, "questions", len(loaded))
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*types.Question), nil
}

func (c *QuestionCache) Invalidate(taskID uint) {
	c.mu.Lock()
	delete(c.byTask, taskID)
	c.mu.Unlock()
}
