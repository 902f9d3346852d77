package repository

import (
	"context"
	"lan_exam_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// WithTx 返回绑定到事务的仓储
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByUsernameAndRole(ctx context.Context, username string, role model.UserRole) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).
		Where("username = ? AND role = ?", username, role).
		First(&user).Error
	return &user, err
}

func (r *UserRepository) ListByRole(ctx context.Context, role model.UserRole) ([]model.User, error) {
	var users []model.User
	err := r.DB.WithContext(ctx).Where("role = ?", role).Order("id asc").Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hashed string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password", hashed).Error
}

// MarkAttempted 只能置位，返回 false 表示此前已经置位
func (r *UserRepository) MarkAttempted(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND attempted = ?", id, false).
		Update("attempted", true)
	return res.RowsAffected > 0, res.Error
}

// DeleteStudent 只删除学生账号
func (r *UserRepository) DeleteStudent(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND role = ?", id, model.Student).
		Delete(&model.User{})
	return res.RowsAffected, res.Error
}
