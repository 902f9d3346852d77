package model

import "time"

// TabSwitchEvent 前端上报的切屏累计次数
type TabSwitchEvent struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	IPAddress   string    `gorm:"size:45" json:"ipAddress"`
	SwitchCount int       `json:"switchCount"`
	Timestamp   time.Time `gorm:"index" json:"timestamp"`
}

func (TabSwitchEvent) TableName() string {
	return "tab_switches"
}
