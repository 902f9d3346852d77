package repository

import (
	"context"
	"lan_exam_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// SessionRepository 学生登录会话记录
type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.UserSession) error {
	return r.DB.WithContext(ctx).Create(session).Error
}

func (r *SessionRepository) CloseActive(ctx context.Context, userID uint, at time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.UserSession{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			"logout_time": at,
			"is_active":   false,
		})
	return res.RowsAffected, res.Error
}

func (r *SessionRepository) ListWithUsers(ctx context.Context) ([]model.SessionRow, error) {
	var rows []model.SessionRow
	err := r.DB.WithContext(ctx).
		Table("user_sessions AS s").
		Select("u.username, s.ip_address, s.login_time, s.logout_time, s.is_active").
		Joins("JOIN users u ON s.user_id = u.id").
		Order("s.login_time DESC").
		Scan(&rows).Error
	return rows, err
}
