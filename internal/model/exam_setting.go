package model

import "time"

// SettingsID exam_settings 只有一行
const SettingsID uint = 1

type ExamSetting struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	DurationMinutes  int       `gorm:"not null;default:30" json:"duration_minutes"`
	QuestionsPerExam int       `gorm:"not null;default:10" json:"questions_per_exam"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (ExamSetting) TableName() string {
	return "exam_settings"
}
