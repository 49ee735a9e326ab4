package websocket

import (
	"sync"

	"bump-server/pkg/metrics"

	"github.com/gorilla/websocket"
)

// Client 代表一个WebSocket连接的用户
type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(userID uint, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
}

// Manager 管理所有在线用户的WebSocket连接，每个用户保留最新的一条连接
type Manager struct {
	clients map[uint]*Client
	lock    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{clients: make(map[uint]*Client)}
}

// AddClient 添加新连接，同一用户的旧连接会被关闭
func (m *Manager) AddClient(userID uint, client *Client) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if old, ok := m.clients[userID]; ok && old != client {
		close(old.Send)
		if old.Conn != nil {
			_ = old.Conn.Close()
		}
		metrics.DecWSActive()
	}
	m.clients[userID] = client
	metrics.IncWSActive()
}

// RemoveClient 移除连接；只移除传入的这一条，避免误删已替换的新连接
func (m *Manager) RemoveClient(userID uint, client *Client) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	c, ok := m.clients[userID]
	if !ok || c != client {
		return false
	}
	close(c.Send)
	delete(m.clients, userID)
	metrics.DecWSActive()
	return true
}

// SendToUser 推送消息给指定用户，不在线或发送缓冲已满时返回 false
// 持有读锁发送，保证不会写入已关闭的通道
func (m *Manager) SendToUser(userID uint, msg []byte) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	client, ok := m.clients[userID]
	if !ok {
		return false
	}
	select {
	case client.Send <- msg:
		return true
	default:
		return false
	}
}

// IsOnline 判断用户在本实例上是否有连接
func (m *Manager) IsOnline(userID uint) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

// Count 当前连接数
func (m *Manager) Count() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.clients)
}
