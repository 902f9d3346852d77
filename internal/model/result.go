package model

import "time"

// Result 写入后不可修改
type Result struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"userId"`
	IPAddress      string    `gorm:"size:45" json:"ipAddress"`
	Score          int       `gorm:"not null" json:"score"`
	TotalQuestions int       `gorm:"not null" json:"totalQuestions"`
	StartedAt      time.Time `json:"startedAt"`
	SubmittedAt    time.Time `gorm:"index" json:"submittedAt"`
}

func (Result) TableName() string {
	return "results"
}
