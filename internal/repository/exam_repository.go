package repository

import (
	"context"
	"lan_exam_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExamRepository 进行中的考试和作答记录
type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) WithTx(tx *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: tx}
}

func (r *ExamRepository) FindActiveExam(ctx context.Context, userID uint) (*model.ActiveExam, error) {
	var exam model.ActiveExam
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&exam).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// CreateActiveExamIfAbsent user_id 唯一；并发开考时后到者不插入，返回 false
func (r *ExamRepository) CreateActiveExamIfAbsent(ctx context.Context, exam *model.ActiveExam) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(exam)
	return res.RowsAffected > 0, res.Error
}

func (r *ExamRepository) DeleteActiveExam(ctx context.Context, userID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.ActiveExam{})
	return res.RowsAffected, res.Error
}

func (r *ExamRepository) CreateAnswers(ctx context.Context, answers []model.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).CreateInBatches(answers, 100).Error
}

func (r *ExamRepository) ListAnswersByUser(ctx context.Context, userID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&answers).Error
	return answers, err
}
