package notify

import (
	"slices"
	"sync"
	"sync/atomic"

	"bump-server/internal/model"
)

// Queue 会话内的通知队列，最新的在最前
// 写操作串行化并整体替换切片，读操作拿到的是某一时刻的完整快照
type Queue struct {
	mu    sync.Mutex
	items atomic.Pointer[[]model.Notification]
	max   int
}

// NewQueue max<=0 表示不限制长度
func NewQueue(max int) *Queue {
	q := &Queue{max: max}
	empty := []model.Notification{}
	q.items.Store(&empty)
	return q
}

func (q *Queue) load() []model.Notification {
	return *q.items.Load()
}

// Snapshot 返回当前队列的副本
func (q *Queue) Snapshot() []model.Notification {
	return slices.Clone(q.load())
}

// Len 队列长度
func (q *Queue) Len() int {
	return len(q.load())
}

// Push 插入到队首，超过上限时丢弃最旧的
func (q *Queue) Push(n model.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cur := q.load()
	size := len(cur) + 1
	if q.max > 0 && size > q.max {
		size = q.max
	}
	next := make([]model.Notification, 0, size)
	next = append(next, n)
	next = append(next, cur[:size-1]...)
	q.items.Store(&next)
}

// MarkRead 标记单条已读，id 不存在时什么也不做
func (q *Queue) MarkRead(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	cur := q.load()
	idx := slices.IndexFunc(cur, func(n model.Notification) bool { return n.ID == id })
	if idx < 0 {
		return false
	}
	if cur[idx].Read {
		return true
	}
	next := slices.Clone(cur)
	next[idx].Read = true
	q.items.Store(&next)
	return true
}

// MarkAllRead 全部标记已读
func (q *Queue) MarkAllRead() {
	q.mu.Lock()
	defer q.mu.Unlock()

	next := slices.Clone(q.load())
	for i := range next {
		next[i].Read = true
	}
	q.items.Store(&next)
}

// ClearAll 清空队列
func (q *Queue) ClearAll() {
	q.mu.Lock()
	defer q.mu.Unlock()

	empty := []model.Notification{}
	q.items.Store(&empty)
}

// UnreadCount 每次都从当前快照重新统计
func (q *Queue) UnreadCount() int {
	count := 0
	for _, n := range q.load() {
		if !n.Read {
			count++
		}
	}
	return count
}
