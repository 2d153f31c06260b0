package survey

// Category is one side of an axis. OppositeID points at the other side of the
// same axis; the pairing is resolved through an id lookup, never a preloaded
// association.
type Category struct {
	ID         uint   `gorm:"column:category_id;primaryKey;autoIncrement" json:"category_id"`
	TaskID     uint   `gorm:"column:task_id;not null;index" json:"task_id"`
	Name       string `gorm:"column:name;not null" json:"name"`
	OppositeID *uint  `gorm:"column:opposite_category_id;index" json:"opposite_category_id,omitempty"`
}

func (Category) TableName() string { return "category" }
