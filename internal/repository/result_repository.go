package repository

import (
	"context"
	"lan_exam_backend/internal/model"

	"gorm.io/gorm"
)

// ResultRepository 成绩只允许新增和查询
type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

func (r *ResultRepository) WithTx(tx *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: tx}
}

func (r *ResultRepository) Create(ctx context.Context, result *model.Result) error {
	return r.DB.WithContext(ctx).Create(result).Error
}

func (r *ResultRepository) FindByUser(ctx context.Context, userID uint) (*model.Result, error) {
	var result model.Result
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id desc").First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListRanked 按分数降序、提交时间升序
func (r *ResultRepository) ListRanked(ctx context.Context) ([]model.ResultRow, error) {
	var rows []model.ResultRow
	err := r.DB.WithContext(ctx).
		Table("results AS r").
		Select("u.username, r.ip_address, r.score, r.total_questions, r.started_at, r.submitted_at").
		Joins("JOIN users u ON r.user_id = u.id").
		Order("r.score DESC, r.submitted_at ASC").
		Scan(&rows).Error
	return rows, err
}
