package survey

// Question is a single statement shown on one frame page. SequenceNum is
// 1-based and unique per task.
type Question struct {
	ID            uint   `gorm:"column:question_id;primaryKey;autoIncrement" json:"question_id"`
	TaskID        uint   `gorm:"column:task_id;not null;uniqueIndex:idx_question_task_seq" json:"task_id"`
	SequenceNum   int    `gorm:"column:sequence_num;not null;uniqueIndex:idx_question_task_seq" json:"sequence_num"`
	Text          string `gorm:"column:text;not null" json:"text"`
	ImagePath     string `gorm:"column:image_path" json:"image_path"`
	ImageIPFSHash string `gorm:"column:image_ipfs_hash;not null" json:"image_ipfs_hash"`

	Categories []Category `gorm:"many2many:question_category;" json:"categories,omitempty"`
}

func (Question) TableName() string { return "question" }
