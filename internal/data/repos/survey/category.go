package survey

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type CategoryRepo interface {
	Create(dbc dbctx.Context, cats []*types.Category) ([]*types.Category, error)
	ListByTask(dbc dbctx.Context, taskID uint) ([]*types.Category, error)
	PairOpposites(dbc dbctx.Context, a, b uint) error
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) Create(dbc dbctx.Context, cats []*types.Category) ([]*types.Category, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(cats) == 0 {
		return []*types.Category{}, nil
	}
	// One row at a time so ids follow slice order on every driver.
	for _, c := range cats {
		if err := t.WithContext(dbc.Ctx).Create(c).Error; err != nil {
			return nil, err
		}
	}
	return cats, nil
}

func (r *categoryRepo) ListByTask(dbc dbctx.Context, taskID uint) ([]*types.Category, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Category
	if err := t.WithContext(dbc.Ctx).
		Where("task_id = ?", taskID).
		Order("category_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// PairOpposites points a and b at each other.
func (r *categoryRepo) PairOpposites(dbc dbctx.Context, a, b uint) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if a == 0 || b == 0 || a == b {
		return fmt.Errorf("cannot pair categories %d and %d", a, b)
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Category{}).
		Where("category_id = ?", a).
		Update("opposite_category_id", b).Error; err != nil {
		return err
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Category{}).
		Where("category_id = ?", b).
		Update("opposite_category_id", a).Error
}
