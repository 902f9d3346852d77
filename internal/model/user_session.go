package model

import "time"

type UserSession struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"userId"`
	IPAddress  string     `gorm:"size:45" json:"ipAddress"`
	LoginTime  time.Time  `gorm:"index" json:"loginTime"`
	LogoutTime *time.Time `json:"logoutTime"`
	IsActive   bool       `gorm:"index" json:"isActive"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}
