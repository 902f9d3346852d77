package repository

import (
	"context"
	"lan_exam_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) WithTx(tx *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: tx}
}

func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

func (r *QuestionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.WithContext(ctx).First(&q, id).Error
	return &q, err
}

// FindByIDs 返回 id -> 题目，已删除的题目不在结果中
func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*model.Question, error) {
	result := make(map[uint]*model.Question, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var qs []model.Question
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&qs).Error; err != nil {
		return nil, err
	}
	for i := range qs {
		result[qs[i].ID] = &qs[i]
	}
	return result, nil
}

func (r *QuestionRepository) ListAll(ctx context.Context) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.WithContext(ctx).Order("id asc").Find(&qs).Error
	return qs, err
}

// ListIDs 题库中所有题目 id，用于抽题
func (r *QuestionRepository) ListIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.Question{}).Order("id asc").Pluck("id", &ids).Error
	return ids, err
}

func (r *QuestionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Question{}).Count(&count).Error
	return count, err
}

func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("id = ?", q.ID).
		Updates(map[string]interface{}{
			"question":       q.Question,
			"option_a":       q.OptionA,
			"option_b":       q.OptionB,
			"option_c":       q.OptionC,
			"option_d":       q.OptionD,
			"correct_answer": q.CorrectAnswer,
		})
	return res.RowsAffected, res.Error
}

func (r *QuestionRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).Delete(&model.Question{}, id)
	return res.RowsAffected, res.Error
}
