package survey

// Cluster is the personality bucket a completed user is assigned to. Its name
// is the space-joined winning category of every axis.
type Cluster struct {
	ID            uint   `gorm:"column:cluster_id;primaryKey;autoIncrement" json:"cluster_id"`
	TaskID        uint   `gorm:"column:task_id;not null;uniqueIndex:idx_cluster_task_name" json:"task_id"`
	Name          string `gorm:"column:name;not null;uniqueIndex:idx_cluster_task_name" json:"name"`
	ImageIPFSHash string `gorm:"column:image_ipfs_hash;not null" json:"image_ipfs_hash"`
}

func (Cluster) TableName() string { return "cluster" }
