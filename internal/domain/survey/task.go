package survey

import "time"

// Task is one survey instance. It owns every category, question, cluster,
// response and completion that references it.
type Task struct {
	ID              uint      `gorm:"column:task_id;primaryKey;autoIncrement" json:"task_id"`
	Title           string    `gorm:"column:title;index" json:"title"`
	Description     string    `gorm:"column:description" json:"description"`
	Network         string    `gorm:"column:network;not null" json:"network"`
	ContractAddress string    `gorm:"column:contract_address;not null" json:"contract_address"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Task) TableName() string { return "task" }
