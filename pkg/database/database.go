package database

import (
	"errors"
	"fmt"
	"lan_exam_backend/internal/config"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/util"
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlite 连接参数：WAL 日志、NORMAL 同步、忙等待与外键
const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=cache_size(10000)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", util.DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = "exam.db"
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return sqlite.Open(path + sep + sqlitePragmas), nil
	case util.DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case util.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=Local",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.DBName,
			cfg.SSLMode,
		)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "" || cfg.Driver == util.DriverSQLite {
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	log.Printf("Database connection established (%s)", d.Name())
	return db, nil
}

// Migrate 建表
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.ActiveExam{},
		&model.Answer{},
		&model.Result{},
		&model.ExamSetting{},
		&model.TabSwitchEvent{},
		&model.UserSession{},
	)
	if err != nil {
		return err
	}
	log.Println("Database migration completed")
	return nil
}

// EnsureDefaults 默认考试设置和默认管理员
func EnsureDefaults(db *gorm.DB, cfg *config.Config) error {
	settings := model.ExamSetting{
		ID:               model.SettingsID,
		DurationMinutes:  cfg.Exam.DefaultDurationMinutes,
		QuestionsPerExam: cfg.Exam.DefaultQuestionsPerExam,
	}
	if settings.DurationMinutes < 1 {
		settings.DurationMinutes = 30
	}
	if settings.QuestionsPerExam < 1 {
		settings.QuestionsPerExam = 10
	}
	if err := db.Where(model.ExamSetting{ID: model.SettingsID}).FirstOrCreate(&settings).Error; err != nil {
		return err
	}

	if cfg.Admin.DefaultUsername == "" {
		return nil
	}

	var admin model.User
	err := db.Where("username = ?", cfg.Admin.DefaultUsername).First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := util.HashPassword(cfg.Admin.DefaultPassword)
	if err != nil {
		return err
	}
	admin = model.User{
		Username: cfg.Admin.DefaultUsername,
		Password: hashed,
		Role:     model.Admin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("Default admin %q created", admin.Username)
	return nil
}
