package model

import (
	"time"

	"gorm.io/datatypes"
)

// ActiveExam 考试进行中时与用户一对一，保存已抽取题目的顺序
type ActiveExam struct {
	ID          uint                      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint                      `gorm:"uniqueIndex;not null" json:"userId"`
	QuestionIDs datatypes.JSONSlice[uint] `gorm:"column:question_ids;not null" json:"questionIds"`
	StartedAt   time.Time                 `gorm:"not null" json:"startedAt"`
}

func (ActiveExam) TableName() string {
	return "active_exams"
}
