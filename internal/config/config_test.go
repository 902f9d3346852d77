package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate 把会创建目录的配置项指向临时目录
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("EXAM_STORAGE_LOCAL_PATH", filepath.Join(dir, "exports"))
	t.Setenv("EXAM_LOG_FILE", filepath.Join(dir, "logs", "app.log"))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.StudentPort != "5000" || cfg.Server.AdminPort != "5001" {
		t.Errorf("ports = %s/%s", cfg.Server.StudentPort, cfg.Server.AdminPort)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "exam.db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.JWT.ExpireTime != time.Hour {
		t.Errorf("session lifetime = %v, want 1h", cfg.JWT.ExpireTime)
	}
	if cfg.RateLimit.MaxLoginAttempts != 5 || cfg.RateLimit.LoginWindow() != time.Minute {
		t.Errorf("login throttle = %d per %v", cfg.RateLimit.MaxLoginAttempts, cfg.RateLimit.LoginWindow())
	}
	if cfg.Exam.DefaultDurationMinutes != 30 || cfg.Exam.DefaultQuestionsPerExam != 10 {
		t.Errorf("exam defaults = %+v", cfg.Exam)
	}
	if cfg.JWT.StudentSecret == "" || cfg.JWT.AdminSecret == "" || cfg.JWT.StudentSecret == cfg.JWT.AdminSecret {
		t.Error("empty secrets should be replaced by distinct random values")
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile = %q, want empty when no file exists", cfg.ConfigFile)
	}
	if _, err := os.Stat(filepath.Join(dir, "exports")); err != nil {
		t.Errorf("local storage dir not created: %v", err)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := isolate(t)
	yaml := []byte(`
server:
  student_port: "6000"
  mode: debug
exam:
  default_questions_per_exam: 15
rate_limit:
  max_login_attempts: 8
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SECRET_KEY", "student-secret")
	t.Setenv("SESSION_LIFETIME", "120")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "3")
	t.Setenv("DB_PATH", filepath.Join(dir, "lan.db"))

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.StudentPort != "6000" || cfg.Exam.DefaultQuestionsPerExam != 15 {
		t.Errorf("file values not applied: %+v %+v", cfg.Server, cfg.Exam)
	}
	if cfg.JWT.StudentSecret != "student-secret" || cfg.JWT.ExpireTime != 2*time.Minute {
		t.Errorf("jwt = %+v", cfg.JWT)
	}
	if cfg.RateLimit.MaxLoginAttempts != 3 {
		t.Errorf("env should override file: %d", cfg.RateLimit.MaxLoginAttempts)
	}
	if cfg.Database.Path != filepath.Join(dir, "lan.db") {
		t.Errorf("db path = %s", cfg.Database.Path)
	}
	if cfg.ConfigFile == "" {
		t.Error("ConfigFile should point at the loaded file")
	}
}

func TestReleaseModeRequiresSecrets(t *testing.T) {
	dir := isolate(t)
	t.Setenv("SERVER_MODE", "release")
	t.Setenv("SECRET_KEY", "short")
	t.Setenv("ADMIN_SECRET_KEY", "short-too")

	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("release mode accepted short secrets")
	}

	same := "0123456789abcdef0123456789abcdef"
	t.Setenv("SECRET_KEY", same)
	t.Setenv("ADMIN_SECRET_KEY", same)
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("release mode accepted identical secrets")
	}

	t.Setenv("ADMIN_SECRET_KEY", same+"-admin")
	if _, err := LoadConfig(dir); err != nil {
		t.Fatalf("valid release config rejected: %v", err)
	}
}
