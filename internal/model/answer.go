package model

import "time"

// MaxSelectedAnswerLen 入库时截断学生提交的选项
const MaxSelectedAnswerLen = 10

// Answer 只追加，不修改
type Answer struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"userId"`
	QuestionID     uint      `gorm:"index;not null" json:"questionId"`
	SelectedAnswer string    `gorm:"size:10" json:"selectedAnswer"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (Answer) TableName() string {
	return "answers"
}
