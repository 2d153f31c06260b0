package db

import (
	types "github.com/earthnet/frame-survey/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.Task{},
		&types.Category{},
		&types.Question{},
		&types.Cluster{},
		&types.Response{},
		&types.Completion{},
	); err != nil {
		return err
	}
	return ensureIndexes(db)
}

func ensureIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_response_task_username ON response (task_id, username)`,
		`CREATE INDEX IF NOT EXISTS idx_completion_task_status ON completion (task_id, mint_status)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
