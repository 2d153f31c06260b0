package survey

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MintStatusPending = "pending"
	MintStatusMinted  = "minted"
	MintStatusFailed  = "failed"
)

// Completion marks that a user finished a task. The (task, user) unique index
// is what rejects a second finalization. TokenID stays nil until the mint
// worker confirms the token.
type Completion struct {
	ID           uint           `gorm:"column:completion_id;primaryKey;autoIncrement" json:"completion_id"`
	TaskID       uint           `gorm:"column:task_id;not null;uniqueIndex:idx_completion_task_user" json:"task_id"`
	UserFID      int64          `gorm:"column:user_fid;not null;uniqueIndex:idx_completion_task_user;index" json:"user_fid"`
	ClusterID    uint           `gorm:"column:cluster_id;not null;index" json:"cluster_id"`
	TokenID      *int64         `gorm:"column:token_id" json:"token_id,omitempty"`
	TokenOrdinal int64          `gorm:"column:token_ordinal;not null;default:0" json:"token_ordinal"`
	Recipient    string         `gorm:"column:recipient" json:"recipient"`
	MintStatus   string         `gorm:"column:mint_status;not null;default:'pending';index" json:"mint_status"`
	Metadata     datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Cluster *Cluster `gorm:"foreignKey:ClusterID;references:ID" json:"cluster,omitempty"`
	Task    *Task    `gorm:"foreignKey:TaskID;references:ID" json:"task,omitempty"`
}

func (Completion) TableName() string { return "completion" }
