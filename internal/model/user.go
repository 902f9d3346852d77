package model

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Username string   `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"size:20;index;not null;default:'student'" json:"role"`
	// Attempted 只会从 false 变为 true，同时限制开考和学生登录
	Attempted bool `gorm:"default:false" json:"attempted"`
}

func (User) TableName() string {
	return "users"
}
