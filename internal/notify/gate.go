package notify

import (
	"maps"
	"time"

	"bump-server/internal/model"

	"github.com/google/uuid"
)

// Event 候选活动事件
type Event struct {
	Kind    model.NotificationKind
	Title   string
	Message string
	ActorID uint
	// ActorIntended 接收者对 ActorID 的意向至少为 private
	ActorIntended bool
	Payload       map[string]any
}

// Valid 事件至少要有类型和可读的消息
func (e Event) Valid() bool {
	switch e.Kind {
	case model.KindCheckIn, model.KindFriendRequest, model.KindSystem:
	default:
		return false
	}
	return e.Message != ""
}

// GateOptions 闸门开关
type GateOptions struct {
	AvailabilityWindow bool // 默认关闭
	EnforceScope       bool // 默认关闭
	MaxQueue           int
	Clock              func() time.Time
	NewID              func() string
}

// Decision 闸门的判定结果
type Decision struct {
	Delivered    bool
	SuppressedBy string
	Notification *model.Notification
}

// Gate 通知闸门：按顺序执行规则，通过的事件生成通知并插入队首
type Gate struct {
	rules []Rule
	queue *Queue
	clock func() time.Time
	newID func() string
}

func NewGate(opts GateOptions) *Gate {
	rules := []Rule{DoNotDisturbRule{}}
	if opts.AvailabilityWindow {
		rules = append(rules, AvailabilityWindowRule{})
	}
	if opts.EnforceScope {
		rules = append(rules, ScopeRule{})
	}
	g := &Gate{
		rules: rules,
		queue: NewQueue(opts.MaxQueue),
		clock: opts.Clock,
		newID: opts.NewID,
	}
	if g.clock == nil {
		g.clock = time.Now
	}
	if g.newID == nil {
		g.newID = uuid.NewString
	}
	return g
}

// Queue 闸门维护的通知队列
func (g *Gate) Queue() *Queue { return g.queue }

// RuleNames 当前启用的规则，按执行顺序
func (g *Gate) RuleNames() []string {
	names := make([]string, 0, len(g.rules))
	for _, r := range g.rules {
		names = append(names, r.Name())
	}
	return names
}

// EvaluateEvent 判定事件是否生成通知；settings 为空时按默认设置处理
func (g *Gate) EvaluateEvent(ev Event, settings *model.Settings) Decision {
	if !ev.Valid() {
		return Decision{SuppressedBy: "invalid_event"}
	}
	if settings == nil {
		settings = model.DefaultSettings(0)
	}
	now := g.clock()
	for _, r := range g.rules {
		if !r.Allow(ev, settings, now) {
			return Decision{SuppressedBy: r.Name()}
		}
	}

	n := model.Notification{
		ID:        g.newID(),
		Title:     ev.Title,
		Message:   ev.Message,
		CreatedAt: now,
		Read:      false,
		Kind:      ev.Kind,
		Payload:   maps.Clone(ev.Payload),
	}
	g.queue.Push(n)
	out := n
	out.Payload = maps.Clone(n.Payload)
	return Decision{Delivered: true, Notification: &out}
}
