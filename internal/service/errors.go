package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 错误分类，调用方用 errors.Is 判断
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrCollaboratorFailure = errors.New("collaborator failure")
)

// storageErr 把存储层错误归类，超时与网络错误统一视为 ErrCollaboratorFailure
func storageErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrCollaboratorFailure, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// requireUser 没有当前用户时所有 owner 相关操作都不可用
func requireUser(userID uint) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	return nil
}

// withTimeout 对每次存储访问套上默认超时，超时按失败上报，不做自动重试
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
