package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Log       LogConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Exam      ExamConfig
	Admin     AdminConfig

	// 运行时标志（非配置文件，通过命令行参数设置）
	ConfigFile  string `mapstructure:"-"`
	MigrateOnly bool   `mapstructure:"-"`
	SeedSample  bool   `mapstructure:"-"`
}

type ServerConfig struct {
	StudentPort string `mapstructure:"student_port"`
	AdminPort   string `mapstructure:"admin_port"`
	Mode        string
}

type DatabaseConfig struct {
	Driver       string // sqlite, mysql, postgres
	Path         string // sqlite 文件路径
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	Charset      string
	ParseTime    bool   `mapstructure:"parse_time"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

type JWTConfig struct {
	StudentSecret string        `mapstructure:"student_secret"`
	AdminSecret   string        `mapstructure:"admin_secret"`
	ExpireTime    time.Duration `mapstructure:"-"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type CORSConfig struct {
	StudentOrigins []string `mapstructure:"student_origins"`
	AdminOrigins   []string `mapstructure:"admin_origins"`
}

type RateLimitConfig struct {
	MaxRequests        int `mapstructure:"max_requests"`
	WindowMinutes      int `mapstructure:"window_minutes"`
	MaxLoginAttempts   int `mapstructure:"max_login_attempts"`
	LoginWindowSeconds int `mapstructure:"login_window_seconds"`
}

// LoginWindow 登录失败计数窗口
func (r RateLimitConfig) LoginWindow() time.Duration {
	return time.Duration(r.LoginWindowSeconds) * time.Second
}

type ExamConfig struct {
	DefaultDurationMinutes  int `mapstructure:"default_duration_minutes"`
	DefaultQuestionsPerExam int `mapstructure:"default_questions_per_exam"`
}

type AdminConfig struct {
	DefaultUsername string `mapstructure:"default_username"`
	DefaultPassword string `mapstructure:"default_password"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.student_port", "5000")
	v.SetDefault("server.admin_port", "5001")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "exam.db")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "exam")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("jwt.student_secret", "")
	v.SetDefault("jwt.admin_secret", "")
	v.SetDefault("jwt.expire_seconds", 3600)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "exports")
	v.SetDefault("storage.minio_endpoint", "")
	v.SetDefault("storage.minio_access_key", "")
	v.SetDefault("storage.minio_secret_key", "")
	v.SetDefault("storage.minio_bucket", "exam-reports")
	v.SetDefault("storage.minio_use_ssl", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.collector_endpoint", "http://localhost:14268/api/traces")

	v.SetDefault("log.level", "")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("cors.student_origins", []string{})
	v.SetDefault("cors.admin_origins", []string{"http://localhost:5001", "http://127.0.0.1:5001"})

	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("rate_limit.max_login_attempts", 5)
	v.SetDefault("rate_limit.login_window_seconds", 60)

	v.SetDefault("exam.default_duration_minutes", 30)
	v.SetDefault("exam.default_questions_per_exam", 10)

	v.SetDefault("admin.default_username", "admin")
	v.SetDefault("admin.default_password", "admin123")
}

func LoadConfig(path string) (*Config, error) {
	// .env 可选，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// EXAM_SERVER_MODE 形式的环境变量覆盖任意配置项
	v.SetEnvPrefix("EXAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.student_port", "STUDENT_PORT")
	v.BindEnv("server.admin_port", "ADMIN_PORT")

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.path", "DB_PATH")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT / 会话
	v.BindEnv("jwt.student_secret", "SECRET_KEY")
	v.BindEnv("jwt.admin_secret", "ADMIN_SECRET_KEY")
	v.BindEnv("jwt.expire_seconds", "SESSION_LIFETIME")

	// 登录限流
	v.BindEnv("rate_limit.max_login_attempts", "MAX_LOGIN_ATTEMPTS")
	v.BindEnv("rate_limit.login_window_seconds", "RATE_LIMIT_WINDOW")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	// 配置和 SESSION_LIFETIME 都以秒为单位
	cfg.JWT.ExpireTime = time.Duration(v.GetInt("jwt.expire_seconds")) * time.Second

	if err := cfg.fillSecrets(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" && cfg.Storage.LocalPath != "" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	if cfg.Log.File != "" {
		os.MkdirAll(filepath.Dir(cfg.Log.File), 0755)
	}

	return &cfg, nil
}

// fillSecrets 未配置密钥时随机生成（重启后已签发的令牌全部失效）
func (c *Config) fillSecrets() error {
	for _, secret := range []*string{&c.JWT.StudentSecret, &c.JWT.AdminSecret} {
		if *secret != "" {
			continue
		}
		generated, err := randomHex(24)
		if err != nil {
			return err
		}
		*secret = generated
	}

	if c.Server.Mode == "release" {
		if len(c.JWT.StudentSecret) < 32 || len(c.JWT.AdminSecret) < 32 {
			return fmt.Errorf("JWT secrets must be at least 32 characters in release mode")
		}
		if c.JWT.StudentSecret == c.JWT.AdminSecret {
			return errors.New("student and admin JWT secrets must differ")
		}
	}
	return nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
