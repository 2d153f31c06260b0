package survey

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

var ErrInvalidValue = errors.New("response value must be one of -2, -1, 1, 2")

type ResponseRepo interface {
	Upsert(dbc dbctx.Context, resp *types.Response) error
	ListByTaskAndUsername(dbc dbctx.Context, taskID uint, username string) ([]*types.Response, error)
	ListByTaskAndUser(dbc dbctx.Context, taskID uint, fid int64) ([]*types.Response, error)
	ListByTask(dbc dbctx.Context, taskID uint) ([]*types.Response, error)
}

type responseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResponseRepo(db *gorm.DB, baseLog *logger.Logger) ResponseRepo {
	return &responseRepo{db: db, log: baseLog.With("repo", "ResponseRepo")}
}

// Upsert writes the answer for (question, user). A second answer to the same
// question replaces value, username and submitted_at on the existing row.
func (r *responseRepo) Upsert(dbc dbctx.Context, resp *types.Response) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if resp == nil {
		return nil
	}
	if !types.ValidResponseValue(resp.Value) {
		return fmt.Errorf("%w: got %d", ErrInvalidValue, resp.Value)
	}
	if resp.SubmittedAt.IsZero() {
		resp.SubmittedAt = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "question_id"}, {Name: "user_fid"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"value",
				"username",
				"submitted_at",
			}),
		}).
		Create(resp).Error
}

func (r *responseRepo) ListByTaskAndUsername(dbc dbctx.Context, taskID uint, username string) ([]*types.Response, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Response
	if err := t.WithContext(dbc.Ctx).
		Preload("Question").
		Where("task_id = ? AND username = ?", taskID, username).
		Order("response_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *responseRepo) ListByTaskAndUser(dbc dbctx.Context, taskID uint, fid int64) ([]*types.Response, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Response
	if err := t.WithContext(dbc.Ctx).
		Preload("Question").
		Where("task_id = ? AND user_fid = ?", taskID, fid).
		Order("response_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *responseRepo) ListByTask(dbc dbctx.Context, taskID uint) ([]*types.Response, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Response
	if err := t.WithContext(dbc.Ctx).
		Preload("Question").
		Where("task_id = ?", taskID).
		Order("response_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
