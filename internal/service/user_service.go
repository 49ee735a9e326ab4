package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bump-server/internal/model"
	"bump-server/internal/notify"
	"bump-server/pkg/logger"
	"bump-server/pkg/password"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenIssuer 签发访问令牌
type TokenIssuer interface {
	GenerateToken(userID uint, username string) (string, error)
}

// SessionController 登录开始通知会话，登出结束
type SessionController interface {
	Start(ctx context.Context, userID uint) (*notify.Session, error)
	End(userID uint)
}

// PresenceRemover 登出时清理在线状态
type PresenceRemover interface {
	Remove(ctx context.Context, userID uint) error
}

type UserService struct {
	repo     UserStore
	tokens   TokenIssuer
	sessions SessionController
	presence PresenceRemover
	timeout  time.Duration
}

func NewUserService(repo UserStore, tokens TokenIssuer, sessions SessionController, presence PresenceRemover, timeout time.Duration) *UserService {
	return &UserService{repo: repo, tokens: tokens, sessions: sessions, presence: presence, timeout: timeout}
}

// Register 注册
func (s *UserService) Register(ctx context.Context, username, email, plainPassword string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || plainPassword == "" {
		return nil, "", invalid("username, email and password are required")
	}
	if err := password.Check(plainPassword); err != nil {
		return nil, "", invalid("password must be %d to %d bytes", password.MinLength, password.MaxLength)
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", invalid("username or email already registered")
		}
		return nil, "", storageErr("create user", err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}
	s.startSession(ctx, user.ID)
	logger.Info("用户注册", zap.Uint("user_id", user.ID))
	return user, token, nil
}

// Login 登录，用户名或邮箱均可
func (s *UserService) Login(ctx context.Context, identifier, plainPassword string) (*model.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || plainPassword == "" {
		return nil, "", invalid("identifier and password are required")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.repo.GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUnauthenticated
		}
		return nil, "", storageErr("load user", err)
	}
	if !password.Verify(plainPassword, u.PasswordHash) {
		return nil, "", ErrUnauthenticated
	}
	token, err := s.tokens.GenerateToken(u.ID, u.Username)
	if err != nil {
		return nil, "", err
	}
	s.startSession(ctx, u.ID)
	logger.Info("用户登录", zap.Uint("user_id", u.ID))
	return u, token, nil
}

// Logout 结束通知会话（队列随之丢弃）并清理在线状态
func (s *UserService) Logout(ctx context.Context, userID uint) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if s.sessions != nil {
		s.sessions.End(userID)
	}
	if s.presence != nil {
		if err := s.presence.Remove(ctx, userID); err != nil {
			logger.Warn("清理在线状态失败", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	logger.Info("用户登出", zap.Uint("user_id", userID))
	return nil
}

// Profile 当前用户资料
func (s *UserService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, storageErr("load user", err)
	}
	return u, nil
}

// startSession 会话启动失败不影响登录，首次访问受保护接口时会再次尝试
func (s *UserService) startSession(ctx context.Context, userID uint) {
	if s.sessions == nil {
		return
	}
	if _, err := s.sessions.Start(ctx, userID); err != nil {
		logger.Warn("启动通知会话失败", zap.Uint("user_id", userID), zap.Error(err))
	}
}
