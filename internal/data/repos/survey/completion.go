package survey

import (
	"time"

	"gorm.io/gorm"

	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type CompletionRepo interface {
	// Create fails with a unique violation when (task, user) already has a row.
	Create(dbc dbctx.Context, c *types.Completion) (*types.Completion, error)
	GetByID(dbc dbctx.Context, id uint) (*types.Completion, error)
	GetByTaskAndUser(dbc dbctx.Context, taskID uint, fid int64) (*types.Completion, error)
	ListByTask(dbc dbctx.Context, taskID uint) ([]*types.Completion, error)
	UpdateFields(dbc dbctx.Context, id uint, updates map[string]any) error
}

type completionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompletionRepo(db *gorm.DB, baseLog *logger.Logger) CompletionRepo {
	return &completionRepo{db: db, log: baseLog.With("repo", "CompletionRepo")}
}

func (r *completionRepo) Create(dbc dbctx.Context, c *types.Completion) (*types.Completion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if c.MintStatus == "" {
		c.MintStatus = types.MintStatusPending
	}
	if err := t.WithContext(dbc.Ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *completionRepo) GetByID(dbc dbctx.Context, id uint) (*types.Completion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == 0 {
		return nil, nil
	}
	var row types.Completion
	if err := t.WithContext(dbc.Ctx).
		Preload("Cluster").
		Where("completion_id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *completionRepo) GetByTaskAndUser(dbc dbctx.Context, taskID uint, fid int64) (*types.Completion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Completion
	if err := t.WithContext(dbc.Ctx).
		Where("task_id = ? AND user_fid = ?", taskID, fid).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *completionRepo) ListByTask(dbc dbctx.Context, taskID uint) ([]*types.Completion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Completion
	if err := t.WithContext(dbc.Ctx).
		Preload("Cluster").
		Where("task_id = ?", taskID).
		Order("completion_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *completionRepo) UpdateFields(dbc dbctx.Context, id uint, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == 0 {
		return nil
	}
	if updates == nil {
		updates = map[string]any{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Completion{}).
		Where("completion_id = ?", id).
		Updates(updates).Error
}
