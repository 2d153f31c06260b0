package survey

import (
	"gorm.io/gorm"

	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type TaskRepo interface {
	Create(dbc dbctx.Context, task *types.Task) (*types.Task, error)
	GetByID(dbc dbctx.Context, id uint) (*types.Task, error)
	List(dbc dbctx.Context) ([]*types.Task, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (r *taskRepo) Create(dbc dbctx.Context, task *types.Task) (*types.Task, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// GetByID returns nil, nil when the task does not exist.
func (r *taskRepo) GetByID(dbc dbctx.Context, id uint) (*types.Task, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == 0 {
		return nil, nil
	}
	var row types.Task
	if err := t.WithContext(dbc.Ctx).
		Where("task_id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *taskRepo) List(dbc dbctx.Context) ([]*types.Task, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Task
	if err := t.WithContext(dbc.Ctx).
		Order("task_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
