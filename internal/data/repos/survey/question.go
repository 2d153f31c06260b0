package survey

import (
	"gorm.io/gorm"

	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, q *types.Question, categoryIDs []uint) (*types.Question, error)
	ListByTask(dbc dbctx.Context, taskID uint) ([]*types.Question, error)
	UpdateImageHash(dbc dbctx.Context, id uint, hash string) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

// Create inserts the question and its question_category links. The
// categories themselves must already exist.
func (r *questionRepo) Create(dbc dbctx.Context, q *types.Question, categoryIDs []uint) (*types.Question, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q.Categories = make([]types.Category, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		q.Categories = append(q.Categories, types.Category{ID: id, TaskID: q.TaskID})
	}
	if err := t.WithContext(dbc.Ctx).
		Omit("Categories.*").
		Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

// ListByTask returns the task's questions by sequence number, each with its
// categories ordered by id.
func (r *questionRepo) ListByTask(dbc dbctx.Context, taskID uint) ([]*types.Question, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Question
	if err := t.WithContext(dbc.Ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("category_id ASC")
		}).
		Where("task_id = ?", taskID).
		Order("sequence_num ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) UpdateImageHash(dbc dbctx.Context, id uint, hash string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Question{}).
		Where("question_id = ?", id).
		Update("image_ipfs_hash", hash).Error
}
