package repository

import (
	"context"
	"lan_exam_backend/internal/model"

	"gorm.io/gorm"
)

type SettingRepository struct {
	DB *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{DB: db}
}

func (r *SettingRepository) WithTx(tx *gorm.DB) *SettingRepository {
	return &SettingRepository{DB: tx}
}

// Get 读取唯一一行设置，不存在时按默认值创建
func (r *SettingRepository) Get(ctx context.Context) (*model.ExamSetting, error) {
	settings := model.ExamSetting{
		ID:               model.SettingsID,
		DurationMinutes:  30,
		QuestionsPerExam: 10,
	}
	err := r.DB.WithContext(ctx).
		Where(model.ExamSetting{ID: model.SettingsID}).
		FirstOrCreate(&settings).Error
	return &settings, err
}

func (r *SettingRepository) Update(ctx context.Context, durationMinutes, questionsPerExam int) error {
	settings := model.ExamSetting{
		ID:               model.SettingsID,
		DurationMinutes:  durationMinutes,
		QuestionsPerExam: questionsPerExam,
	}
	return r.DB.WithContext(ctx).Save(&settings).Error
}
