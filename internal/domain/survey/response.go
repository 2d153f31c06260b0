package survey

import "time"

// Answer values on the four-point agreement scale.
const (
	ValueStronglyDisagree = -2
	ValueDisagree         = -1
	ValueAgree            = 1
	ValueStronglyAgree    = 2
)

// Response is a user's answer to one question. At most one row exists per
// (question, user); a resubmission overwrites Value in place.
type Response struct {
	ID          uint      `gorm:"column:response_id;primaryKey;autoIncrement" json:"response_id"`
	QuestionID  uint      `gorm:"column:question_id;not null;uniqueIndex:idx_response_question_user" json:"question_id"`
	TaskID      uint      `gorm:"column:task_id;not null;index" json:"task_id"`
	UserFID     int64     `gorm:"column:user_fid;not null;uniqueIndex:idx_response_question_user;index" json:"user_fid"`
	Username    string    `gorm:"column:username;index" json:"username"`
	Value       int       `gorm:"column:value;not null;index" json:"value"`
	SubmittedAt time.Time `gorm:"column:submitted_at;not null" json:"submitted_at"`

	Question *Question `gorm:"foreignKey:QuestionID;references:ID" json:"question,omitempty"`
}

func (Response) TableName() string { return "response" }

func ValidValue(v int) bool {
	switch v {
	case ValueStronglyDisagree, ValueDisagree, ValueAgree, ValueStronglyAgree:
		return true
	default:
		return false
	}
}
