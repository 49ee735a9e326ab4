package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"bump-server/internal/model"
	"bump-server/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettingsPatch 部分更新，nil 字段不修改
type SettingsPatch struct {
	AvailabilityStart *string            `json:"availability_start"`
	AvailabilityEnd   *string            `json:"availability_end"`
	NotifyFor         *model.NotifyScope `json:"notify_for"`
	DoNotDisturb      *bool              `json:"do_not_disturb"`
}

// Empty 没有任何字段需要修改
func (p SettingsPatch) Empty() bool {
	return p.AvailabilityStart == nil && p.AvailabilityEnd == nil && p.NotifyFor == nil && p.DoNotDisturb == nil
}

// fields 校验并转换成列名到值的映射
func (p SettingsPatch) fields() (map[string]any, error) {
	fields := make(map[string]any)
	if p.AvailabilityStart != nil {
		if _, err := model.ParseClock(*p.AvailabilityStart); err != nil {
			return nil, invalid("availability_start: %v", err)
		}
		fields["availability_start"] = *p.AvailabilityStart
	}
	if p.AvailabilityEnd != nil {
		if _, err := model.ParseClock(*p.AvailabilityEnd); err != nil {
			return nil, invalid("availability_end: %v", err)
		}
		fields["availability_end"] = *p.AvailabilityEnd
	}
	if p.NotifyFor != nil {
		if !p.NotifyFor.Valid() {
			return nil, invalid("unknown notify scope %q", *p.NotifyFor)
		}
		fields["notify_for"] = *p.NotifyFor
	}
	if p.DoNotDisturb != nil {
		fields["do_not_disturb"] = *p.DoNotDisturb
	}
	return fields, nil
}

// SettingsService 通知设置
type SettingsService struct {
	repo     SettingsStore
	observer SettingsObserver
	timeout  time.Duration
	// 同一用户的写入、读回、通知串行执行，保证最后一次通知的是最新的行
	locks sync.Map
}

func NewSettingsService(repo SettingsStore, timeout time.Duration) *SettingsService {
	return &SettingsService{repo: repo, timeout: timeout}
}

// SetObserver 会话管理器依赖本服务加载设置，因此在构造之后再注入
func (s *SettingsService) SetObserver(o SettingsObserver) {
	s.observer = o
}

// GetOrCreateSettings 首次访问时写入默认设置
func (s *SettingsService) GetOrCreateSettings(ctx context.Context, userID uint) (*model.Settings, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	settings, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr("load settings", err)
	}
	if settings != nil {
		return settings, nil
	}

	settings = model.DefaultSettings(userID)
	if err := s.repo.Create(ctx, settings); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, storageErr("create settings", err)
		}
		// 并发创建，读回已存在的一行
		existing, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			return nil, storageErr("reload settings", err)
		}
		if existing == nil {
			return nil, notFound("settings for user %d", userID)
		}
		return existing, nil
	}
	logger.Info("创建默认设置", zap.Uint("user_id", userID))
	return settings, nil
}

// UpdateSettings 只写 patch 中出现的列
func (s *SettingsService) UpdateSettings(ctx context.Context, userID uint, patch SettingsPatch) (*model.Settings, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}

	current, err := s.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return current, nil
	}

	return s.write(ctx, userID, func(ctx context.Context) (int64, error) {
		return s.repo.UpdateFields(ctx, userID, fields)
	})
}

// ToggleDoNotDisturb 只翻转 do_not_disturb，翻转在数据库里完成
func (s *SettingsService) ToggleDoNotDisturb(ctx context.Context, userID uint) (*model.Settings, error) {
	if _, err := s.GetOrCreateSettings(ctx, userID); err != nil {
		return nil, err
	}
	return s.write(ctx, userID, func(ctx context.Context) (int64, error) {
		return s.repo.ToggleDoNotDisturb(ctx, userID)
	})
}

// write 执行更新后读回存储中的行，缓存和返回值都以读回的为准
func (s *SettingsService) write(ctx context.Context, userID uint, update func(context.Context) (int64, error)) (*model.Settings, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := update(ctx)
	if err != nil {
		return nil, storageErr("update settings", err)
	}
	if rows == 0 {
		return nil, notFound("settings for user %d", userID)
	}

	stored, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr("reload settings", err)
	}
	if stored == nil {
		return nil, notFound("settings for user %d", userID)
	}
	s.notify(userID, stored)
	return stored, nil
}

func (s *SettingsService) userLock(userID uint) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *SettingsService) notify(userID uint, settings *model.Settings) {
	if s.observer != nil {
		s.observer.SettingsChanged(userID, settings)
	}
}
