package app

import (
	"gorm.io/gorm"

	"github.com/earthnet/frame-survey/internal/data/repos"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type Repos struct {
	Tasks       repos.TaskRepo
	Categories  repos.CategoryRepo
	Questions   repos.QuestionRepo
	Responses   repos.ResponseRepo
	Clusters    repos.ClusterRepo
	Completions repos.CompletionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tasks:       repos.NewTaskRepo(db, log),
		Categories:  repos.NewCategoryRepo(db, log),
		Questions:   repos.NewQuestionRepo(db, log),
		Responses:   repos.NewResponseRepo(db, log),
		Clusters:    repos.NewClusterRepo(db, log),
		Completions: repos.NewCompletionRepo(db, log),
	}
}
