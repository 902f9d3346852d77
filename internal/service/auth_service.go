package service

import (
	"context"
	"errors"
	"fmt"
	"lan_exam_backend/internal/config"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/repository"
	"lan_exam_backend/internal/util"
	"lan_exam_backend/pkg/logger"
	"lan_exam_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo    *repository.UserRepository
	SessionRepo *repository.SessionRepository
	Guard       *LoginGuard
	Tokens      *TokenStore
	Cfg         *config.Config
	Monitor     *MonitorHub
}

func NewAuthService(userRepo *repository.UserRepository, sessionRepo *repository.SessionRepository, guard *LoginGuard, tokens *TokenStore, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Guard:       guard,
		Tokens:      tokens,
		Cfg:         cfg,
	}
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// StudentLogin 已完成考试的学生不能再登录；成功后记录登录会话
func (s *AuthService) StudentLogin(ctx context.Context, username, password, ip string) (*LoginResult, error) {
	user, err := s.authenticate(ctx, model.Student, username, password, ip)
	if err != nil {
		return nil, err
	}

	if user.Attempted {
		monitoring.LoginAttempts.WithLabelValues(string(model.Student), "attempted").Inc()
		logger.Log.Warn("User attempted to login after exam completion", zap.String("username", user.Username))
		return nil, util.ErrAlreadyAttempted
	}

	session := &model.UserSession{
		UserID:    user.ID,
		IPAddress: ip,
		LoginTime: time.Now(),
		IsActive:  true,
	}
	if err := s.SessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	result, err := s.issue(user, s.Cfg.JWT.StudentSecret, util.AudienceStudent)
	if err != nil {
		return nil, err
	}

	monitoring.LoginAttempts.WithLabelValues(string(model.Student), "success").Inc()
	logger.Log.Info("User logged in", zap.String("username", user.Username), zap.String("ip", ip))
	s.Monitor.Publish(ctx, MonitorEvent{Type: EventLogin, UserID: user.ID, Username: user.Username, IP: ip})
	return result, nil
}

func (s *AuthService) AdminLogin(ctx context.Context, username, password, ip string) (*LoginResult, error) {
	user, err := s.authenticate(ctx, model.Admin, username, password, ip)
	if err != nil {
		return nil, err
	}

	result, err := s.issue(user, s.Cfg.JWT.AdminSecret, util.AudienceAdmin)
	if err != nil {
		return nil, err
	}

	monitoring.LoginAttempts.WithLabelValues(string(model.Admin), "success").Inc()
	logger.Log.Info("Admin logged in", zap.String("username", user.Username), zap.String("ip", ip))
	return result, nil
}

// StudentLogout 关闭该学生所有活跃会话并注销令牌
func (s *AuthService) StudentLogout(ctx context.Context, claims *util.Claims) error {
	if claims == nil {
		return nil
	}
	if _, err := s.SessionRepo.CloseActive(ctx, claims.UserID, time.Now()); err != nil {
		return fmt.Errorf("close sessions: %w", err)
	}
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	logger.Log.Info("User logged out", zap.Uint("user_id", claims.UserID))
	s.Monitor.Publish(ctx, MonitorEvent{Type: EventLogout, UserID: claims.UserID, Username: claims.Username})
	return nil
}

func (s *AuthService) AdminLogout(ctx context.Context, claims *util.Claims) error {
	if claims == nil {
		return nil
	}
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	logger.Log.Info("Admin logged out", zap.String("username", claims.Username))
	return nil
}

func (s *AuthService) revoke(ctx context.Context, claims *util.Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	if err := s.Tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) authenticate(ctx context.Context, role model.UserRole, username, password, ip string) (*model.User, error) {
	username = util.CleanInput(username, util.MaxUsernameLen)
	password = util.CleanInput(password, util.MaxPasswordLen)
	if username == "" || password == "" {
		return nil, util.ErrInvalidInput
	}

	key := guardKey(string(role), ip, username)
	allowed, err := s.Guard.Allow(ctx, key)
	if err != nil {
		// 限流存储故障时不阻断登录
		logger.Log.Error("Login guard unavailable", zap.Error(err))
		allowed = true
	}
	if !allowed {
		monitoring.LoginAttempts.WithLabelValues(string(role), "throttled").Inc()
		logger.Log.Warn("Login throttled", zap.String("username", username), zap.String("ip", ip), zap.String("role", string(role)))
		return nil, util.ErrTooManyAttempts
	}

	user, err := s.UserRepo.FindByUsernameAndRole(ctx, username, role)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ok := false
	if err == nil {
		var needsRehash bool
		ok, needsRehash = util.CheckPassword(user.Password, password)
		if ok && needsRehash {
			s.upgradeHash(ctx, user, password)
		}
	}

	if !ok {
		if err := s.Guard.Fail(ctx, key); err != nil {
			logger.Log.Error("Failed to record login failure", zap.Error(err))
		}
		monitoring.LoginAttempts.WithLabelValues(string(role), "failure").Inc()
		logger.Log.Warn("Failed login attempt", zap.String("username", username), zap.String("ip", ip), zap.String("role", string(role)))
		return nil, util.ErrInvalidCredentials
	}

	if err := s.Guard.Reset(ctx, key); err != nil {
		logger.Log.Error("Failed to reset login guard", zap.Error(err))
	}
	return user, nil
}

// upgradeHash 旧 sha256 摘要登录成功后换成 bcrypt
func (s *AuthService) upgradeHash(ctx context.Context, user *model.User, password string) {
	hashed, err := util.HashPassword(password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return
	}
	if err := s.UserRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		logger.Log.Error("Failed to upgrade password hash", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	user.Password = hashed
}

func (s *AuthService) issue(user *model.User, secret, audience string) (*LoginResult, error) {
	token, claims, err := util.GenerateJWT(user, secret, audience, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}
