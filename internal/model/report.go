package model

import "time"

// 以下为管理端报表的查询结果行

type ResultRow struct {
	Username       string    `json:"username"`
	IPAddress      string    `json:"ip_address"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage" gorm:"-"`
	StartedAt      time.Time `json:"started_at"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type TabSwitchSummary struct {
	Username     string `json:"username"`
	IPAddress    string `json:"ip_address"`
	MaxSwitches  int    `json:"max_switches"`
	TotalEntries int    `json:"total_entries"`
}

type SessionRow struct {
	Username   string     `json:"username"`
	IPAddress  string     `json:"ip_address"`
	LoginTime  time.Time  `json:"login_time"`
	LogoutTime *time.Time `json:"logout_time"`
	IsActive   bool       `json:"is_active"`
}
