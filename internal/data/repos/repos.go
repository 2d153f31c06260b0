package repos

import (
	"gorm.io/gorm"

	"github.com/earthnet/frame-survey/internal/data/repos/survey"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type TaskRepo = survey.TaskRepo
type CategoryRepo = survey.CategoryRepo
type QuestionRepo = survey.QuestionRepo
type ResponseRepo = survey.ResponseRepo
type ClusterRepo = survey.ClusterRepo
type CompletionRepo = survey.CompletionRepo

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return survey.NewTaskRepo(db, baseLog)
}
func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return survey.NewCategoryRepo(db, baseLog)
}
func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return survey.NewQuestionRepo(db, baseLog)
}
func NewResponseRepo(db *gorm.DB, baseLog *logger.Logger) ResponseRepo {
	return survey.NewResponseRepo(db, baseLog)
}
func NewClusterRepo(db *gorm.DB, baseLog *logger.Logger) ClusterRepo {
	return survey.NewClusterRepo(db, baseLog)
}
func NewCompletionRepo(db *gorm.DB, baseLog *logger.Logger) CompletionRepo {
	return survey.NewCompletionRepo(db, baseLog)
}
