package survey

import (
	"gorm.io/gorm"

	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type ClusterRepo interface {
	Create(dbc dbctx.Context, clusters []*types.Cluster) ([]*types.Cluster, error)
	ListByTask(dbc dbctx.Context, taskID uint) ([]*types.Cluster, error)
}

type clusterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClusterRepo(db *gorm.DB, baseLog *logger.Logger) ClusterRepo {
	return &clusterRepo{db: db, log: baseLog.With("repo", "ClusterRepo")}
}

func (r *clusterRepo) Create(dbc dbctx.Context, clusters []*types.Cluster) ([]*types.Cluster, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(clusters) == 0 {
		return []*types.Cluster{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&clusters).Error; err != nil {
		return nil, err
	}
	return clusters, nil
}

func (r *clusterRepo) ListByTask(dbc dbctx.Context, taskID uint) ([]*types.Cluster, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Cluster
	if err := t.WithContext(dbc.Ctx).
		Where("task_id = ?", taskID).
		Order("cluster_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
