package service

import (
	"context"
	"errors"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/repository"
	"lan_exam_backend/internal/util"
	"lan_exam_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StudentService struct {
	DB       *gorm.DB
	UserRepo *repository.UserRepository
	ExamRepo *repository.ExamRepository
}

func NewStudentService(db *gorm.DB, userRepo *repository.UserRepository, examRepo *repository.ExamRepository) *StudentService {
	return &StudentService{DB: db, UserRepo: userRepo, ExamRepo: examRepo}
}

// StudentView 管理端学生列表
type StudentView struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Attempted bool   `json:"attempted"`
}

func (s *StudentService) List(ctx context.Context) ([]StudentView, error) {
	users, err := s.UserRepo.ListByRole(ctx, model.Student)
	if err != nil {
		return nil, err
	}
	views := make([]StudentView, 0, len(users))
	for _, u := range users {
		views = append(views, StudentView{ID: u.ID, Username: u.Username, Attempted: u.Attempted})
	}
	return views, nil
}

func (s *StudentService) Create(ctx context.Context, admin, username, password string) (*StudentView, error) {
	username = util.CleanInput(username, util.MaxUsernameLen)
	password = util.CleanInput(password, util.MaxPasswordLen)
	if username == "" || password == "" {
		return nil, util.ErrInvalidInput
	}

	_, err := s.UserRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil, util.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Password: hashed,
		Role:     model.Student,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrUsernameTaken
		}
		return nil, err
	}

	logger.Log.Info("Admin added student", zap.String("admin", admin), zap.String("username", username))
	return &StudentView{ID: user.ID, Username: user.Username}, nil
}

// Delete 删除学生账号及其进行中的考试；答题、成绩、切屏、会话记录保留
func (s *StudentService) Delete(ctx context.Context, admin string, id uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.UserRepo.WithTx(tx).DeleteStudent(ctx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return util.ErrUserNotFound
		}
		_, err = s.ExamRepo.WithTx(tx).DeleteActiveExam(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	logger.Log.Info("Admin deleted student", zap.String("admin", admin), zap.Uint("student_id", id))
	return nil
}
