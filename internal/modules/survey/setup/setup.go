package setup

import (
	"context"
	"fmt"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/earthnet/frame-survey/internal/data/repos"
	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/modules/survey/scoring"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type FilePinner interface {
	PinFile(ctx context.Context, path string) (string, error)
}

type Deps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Tasks      repos.TaskRepo
	Categories repos.CategoryRepo
	Questions  repos.QuestionRepo
	Clusters   repos.ClusterRepo

	// Pinner is only needed when Options.PinImages is set.
	Pinner FilePinner
	// QuestionsChanged is called after commit with the new task id. An error
	// is logged; the task stays created.
	QuestionsChanged func(ctx context.Context, taskID uint) error
}

type Options struct {
	PinImages bool
	// BaseDir resolves relative image paths.
	BaseDir string
}

// Apply creates the task described by def in one transaction. Images without
// a hash are pinned first when opts.PinImages is set.
func Apply(ctx context.Context, deps Deps, def *Definition, opts Options) (*types.Task, error) {
	if deps.DB == nil || deps.Tasks == nil || deps.Categories == nil || deps.Questions == nil || deps.Clusters == nil {
		return nil, fmt.Errorf("setup: missing deps")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	log := deps.Log.With("component", "SurveySetup", "title", def.Task.Title)

	hashes := make([]string, len(def.Questions))
	for i, q := range def.Questions {
		hashes[i] = q.ImageIPFSHash
		if hashes[i] != "" {
			continue
		}
		if !opts.PinImages {
			return nil, fmt.Errorf("question %d: image_ipfs_hash missing and pinning disabled", i+1)
		}
		if deps.Pinner == nil {
			return nil, fmt.Errorf("question %d: no pinner configured", i+1)
		}
		path := q.ImagePath
		if !filepath.IsAbs(path) && opts.BaseDir != "" {
			path = filepath.Join(opts.BaseDir, path)
		}
		hash, err := deps.Pinner.PinFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("pin question %d image: %w", i+1, err)
		}
		log.Info("pinned question image", "sequence", i+1, "path", path, "hash", hash)
		hashes[i] = hash
	}

	var task *types.Task
	err := deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		created, err := deps.Tasks.Create(dbc, &types.Task{
			Title:           def.Task.Title,
			Description:     def.Task.Description,
			Network:         def.Task.Network,
			ContractAddress: def.Task.ContractAddress,
		})
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		task = created

		// Axis by axis so category ids follow definition order.
		byName := map[string]*types.Category{}
		for _, ax := range def.Axes {
			cats, err := deps.Categories.Create(dbc, []*types.Category{
				{TaskID: task.ID, Name: ax.Left},
				{TaskID: task.ID, Name: ax.Right},
			})
			if err != nil {
				return fmt.Errorf("create axis %s/%s: %w", ax.Left, ax.Right, err)
			}
			if err := deps.Categories.PairOpposites(dbc, cats[0].ID, cats[1].ID); err != nil {
				return fmt.Errorf("pair %s/%s: %w", ax.Left, ax.Right, err)
			}
			byName[ax.Left], byName[ax.Right] = cats[0], cats[1]
		}

		stored, err := deps.Categories.ListByTask(dbc, task.ID)
		if err != nil {
			return fmt.Errorf("reload categories: %w", err)
		}
		if _, err := scoring.BuildAxisTable(stored); err != nil {
			return err
		}

		for i, q := range def.Questions {
			ids := []uint{byName[q.Categories[0]].ID, byName[q.Categories[1]].ID}
			if _, err := deps.Questions.Create(dbc, &types.Question{
				TaskID:        task.ID,
				SequenceNum:   i + 1,
				Text:          q.Text,
				ImagePath:     q.ImagePath,
				ImageIPFSHash: hashes[i],
			}, ids); err != nil {
				return fmt.Errorf("create question %d: %w", i+1, err)
			}
		}

		clusters := make([]*types.Cluster, 0, len(def.Clusters))
		for _, c := range def.Clusters {
			clusters = append(clusters, &types.Cluster{TaskID: task.ID, Name: c.Name, ImageIPFSHash: c.ImageIPFSHash})
		}
		if _, err := deps.Clusters.Create(dbc, clusters); err != nil {
			return fmt.Errorf("create clusters: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("survey setup failed", "error", err)
		return nil, err
	}

	if deps.QuestionsChanged != nil {
		if err := deps.QuestionsChanged(ctx, task.ID); err != nil {
			log.Warn("cache invalidation failed", "task_id", task.ID, "error", err)
		}
	}
	log.Info("survey created", "task_id", task.ID, "questions", len(def.Questions), "clusters", len(def.Clusters))
	return task, nil
}
