package notify

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"bump-server/internal/model"
	"bump-server/pkg/logger"
	"bump-server/pkg/metrics"

	"go.uber.org/zap"
)

// SettingsLoader 会话启动时加载（必要时创建）用户设置
type SettingsLoader interface {
	GetOrCreateSettings(ctx context.Context, userID uint) (*model.Settings, error)
}

// Pusher 把消息推送到用户的实时连接，用户不在线时返回 false
type Pusher interface {
	SendToUser(userID uint, msg []byte) bool
}

// Session 一个用户的通知会话：闸门、队列和设置缓存
// 会话开始时创建，结束时丢弃，队列不落库
type Session struct {
	UserID    uint
	StartedAt time.Time

	gate     *Gate
	settings atomic.Pointer[model.Settings]
}

func (s *Session) Gate() *Gate   { return s.gate }
func (s *Session) Queue() *Queue { return s.gate.Queue() }

// Settings 当前缓存的设置
func (s *Session) Settings() *model.Settings {
	return s.settings.Load()
}

func (s *Session) setSettings(settings *model.Settings) {
	if settings == nil {
		return
	}
	cp := *settings
	s.settings.Store(&cp)
}

// Manager 管理所有用户的通知会话，由 main 构造并注入
type Manager struct {
	lock     sync.RWMutex
	sessions map[uint]*Session

	gateOpts GateOptions
	loader   SettingsLoader
	pusher   Pusher
}

func NewManager(gateOpts GateOptions, loader SettingsLoader, pusher Pusher) *Manager {
	return &Manager{
		sessions: make(map[uint]*Session),
		gateOpts: gateOpts,
		loader:   loader,
		pusher:   pusher,
	}
}

// Start 获取或创建会话，首次创建时加载设置；设置加载失败则不创建会话
func (m *Manager) Start(ctx context.Context, userID uint) (*Session, error) {
	if s, ok := m.Get(userID); ok {
		return s, nil
	}

	settings, err := m.loader.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}
	s := &Session{
		UserID:    userID,
		StartedAt: time.Now(),
		gate:      NewGate(m.gateOpts),
	}
	s.setSettings(settings)
	m.sessions[userID] = s
	metrics.SetActiveSessions(len(m.sessions))

	logger.Info("通知会话开始", zap.Uint("user_id", userID), zap.Strings("rules", s.gate.RuleNames()))
	return s, nil
}

// Get 查找在线会话
func (m *Manager) Get(userID uint) (*Session, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// End 结束会话，队列随之丢弃
func (m *Manager) End(userID uint) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.sessions[userID]; ok {
		delete(m.sessions, userID)
		metrics.SetActiveSessions(len(m.sessions))
		logger.Info("通知会话结束", zap.Uint("user_id", userID))
	}
}

// Deliver 把事件交给目标用户的闸门；用户没有会话时返回 false
func (m *Manager) Deliver(_ context.Context, userID uint, ev Event) bool {
	s, ok := m.Get(userID)
	if !ok {
		metrics.IncNotification(string(ev.Kind), "no_session")
		return false
	}

	decision := s.gate.EvaluateEvent(ev, s.Settings())
	if !decision.Delivered {
		metrics.IncNotification(string(ev.Kind), "suppressed_"+decision.SuppressedBy)
		logger.Debug("通知被抑制",
			zap.Uint("user_id", userID),
			zap.String("kind", string(ev.Kind)),
			zap.String("rule", decision.SuppressedBy),
		)
		return false
	}
	metrics.IncNotification(string(ev.Kind), "delivered")

	if m.pusher != nil {
		frame, err := json.Marshal(map[string]any{
			"type":   "notification",
			"data":   decision.Notification,
			"unread": s.Queue().UnreadCount(),
		})
		if err == nil {
			m.pusher.SendToUser(userID, frame)
		}
	}
	return true
}

// SettingsChanged 设置保存成功后刷新会话缓存
func (m *Manager) SettingsChanged(userID uint, settings *model.Settings) {
	if s, ok := m.Get(userID); ok {
		s.setSettings(settings)
	}
}

// ActiveSessions 当前会话数
func (m *Manager) ActiveSessions() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.sessions)
}
