// Package testutil 为各包测试提供内存数据库、miniredis 和测试数据
package testutil

import (
	"fmt"
	"lan_exam_backend/internal/config"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/util"
	"lan_exam_backend/pkg/database"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NewDB 每个测试一个独立的内存 sqlite 库，已完成迁移
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.InitDB(&config.DatabaseConfig{
		Driver:   util.DriverSQLite,
		Path:     fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

// Config 与默认配置一致，密钥固定
func Config() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{StudentPort: "5000", AdminPort: "5001", Mode: "test"},
		JWT: config.JWTConfig{
			StudentSecret: "student-secret-for-tests-0123456789",
			AdminSecret:   "admin-secret-for-tests-9876543210",
			ExpireTime:    time.Hour,
		},
		Storage: config.StorageConfig{Type: util.StorageLocal},
		RateLimit: config.RateLimitConfig{
			MaxRequests:        10000,
			WindowMinutes:      1,
			MaxLoginAttempts:   5,
			LoginWindowSeconds: 60,
		},
		Exam:  config.ExamConfig{DefaultDurationMinutes: 30, DefaultQuestionsPerExam: 10},
		Admin: config.AdminConfig{DefaultUsername: "admin", DefaultPassword: "admin123"},
	}
}

func CreateUser(t *testing.T, db *gorm.DB, username, password string, role model.UserRole) *model.User {
	t.Helper()

	hashed, err := util.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &model.User{Username: username, Password: hashed, Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

// CreateQuestions 第 i 题的正确答案循环取 A-D
func CreateQuestions(t *testing.T, db *gorm.DB, n int) []model.Question {
	t.Helper()

	questions := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, model.Question{
			Question:      fmt.Sprintf("Question %d", i+1),
			OptionA:       "first",
			OptionB:       "second",
			OptionC:       "third",
			OptionD:       "fourth",
			CorrectAnswer: model.OptionLetters[i%len(model.OptionLetters)],
		})
	}
	if n > 0 {
		if err := db.Create(&questions).Error; err != nil {
			t.Fatalf("create questions: %v", err)
		}
	}
	return questions
}

// SetExamSettings 覆盖单例设置行
func SetExamSettings(t *testing.T, db *gorm.DB, duration, count int) {
	t.Helper()

	settings := model.ExamSetting{ID: model.SettingsID, DurationMinutes: duration, QuestionsPerExam: count}
	if err := db.Save(&settings).Error; err != nil {
		t.Fatalf("save settings: %v", err)
	}
}
