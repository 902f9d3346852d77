package service

import (
	"context"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/repository"
	"lan_exam_backend/internal/util"
	"lan_exam_backend/pkg/logger"

	"go.uber.org/zap"
)

type SettingService struct {
	Repo *repository.SettingRepository
}

func NewSettingService(repo *repository.SettingRepository) *SettingService {
	return &SettingService{Repo: repo}
}

func (s *SettingService) Get(ctx context.Context) (*model.ExamSetting, error) {
	return s.Repo.Get(ctx)
}

// Update 两项都必须 >= 1；修改只影响之后开考的学生
func (s *SettingService) Update(ctx context.Context, admin string, durationMinutes, questionsPerExam int) (*model.ExamSetting, error) {
	if durationMinutes < 1 || questionsPerExam < 1 {
		return nil, util.ErrInvalidSettings
	}
	if err := s.Repo.Update(ctx, durationMinutes, questionsPerExam); err != nil {
		return nil, err
	}
	logger.Log.Info("Admin updated settings",
		zap.String("admin", admin),
		zap.Int("duration_minutes", durationMinutes),
		zap.Int("questions_per_exam", questionsPerExam),
	)
	return s.Repo.Get(ctx)
}
