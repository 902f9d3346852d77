package repository

import (
	"context"
	"database/sql"
	"lan_exam_backend/internal/model"

	"gorm.io/gorm"
)

type TabSwitchRepository struct {
	DB *gorm.DB
}

func NewTabSwitchRepository(db *gorm.DB) *TabSwitchRepository {
	return &TabSwitchRepository{DB: db}
}

func (r *TabSwitchRepository) Create(ctx context.Context, event *model.TabSwitchEvent) error {
	return r.DB.WithContext(ctx).Create(event).Error
}

// MaxCount 用户上报过的最大切屏次数，没有记录时为 0
func (r *TabSwitchRepository) MaxCount(ctx context.Context, userID uint) (int, error) {
	var max sql.NullInt64
	err := r.DB.WithContext(ctx).Model(&model.TabSwitchEvent{}).
		Select("MAX(switch_count)").
		Where("user_id = ?", userID).
		Row().Scan(&max)
	if err != nil || !max.Valid {
		return 0, err
	}
	return int(max.Int64), nil
}

func (r *TabSwitchRepository) Summaries(ctx context.Context) ([]model.TabSwitchSummary, error) {
	var rows []model.TabSwitchSummary
	err := r.DB.WithContext(ctx).
		Table("tab_switches AS t").
		Select("u.username, t.ip_address, MAX(t.switch_count) AS max_switches, COUNT(*) AS total_entries").
		Joins("JOIN users u ON t.user_id = u.id").
		Group("u.username, t.ip_address").
		Order("max_switches DESC").
		Scan(&rows).Error
	return rows, err
}
