package notify

import (
	"time"

	"bump-server/internal/model"
)

// Rule 通知闸门中的一条过滤规则，返回 false 表示抑制该事件
type Rule interface {
	Name() string
	Allow(ev Event, settings *model.Settings, now time.Time) bool
}

// DoNotDisturbRule 免打扰，始终启用且排在第一位
type DoNotDisturbRule struct{}

func (DoNotDisturbRule) Name() string { return "do_not_disturb" }

func (DoNotDisturbRule) Allow(_ Event, settings *model.Settings, _ time.Time) bool {
	return !settings.DoNotDisturb
}

// AvailabilityWindowRule 只在 [start, end] 时段内放行，两端均包含
// start > end 视为跨越午夜的时段；时间格式非法时放行
type AvailabilityWindowRule struct{}

func (AvailabilityWindowRule) Name() string { return "availability_window" }

func (AvailabilityWindowRule) Allow(_ Event, settings *model.Settings, now time.Time) bool {
	start, err := model.ParseClock(settings.AvailabilityStart)
	if err != nil {
		return true
	}
	end, err := model.ParseClock(settings.AvailabilityEnd)
	if err != nil {
		return true
	}
	current := now.Hour()*60 + now.Minute()
	if start <= end {
		return current >= start && current <= end
	}
	return current >= start || current <= end
}

// ScopeRule 按 notifyScope 过滤
// none 抑制全部；intended 只放行来自自己有意向的好友的事件；system 事件不受影响
type ScopeRule struct{}

func (ScopeRule) Name() string { return "notify_scope" }

func (ScopeRule) Allow(ev Event, settings *model.Settings, _ time.Time) bool {
	if ev.Kind == model.KindSystem {
		return true
	}
	switch settings.NotifyFor {
	case model.NotifyNone:
		return false
	case model.NotifyIntended:
		return ev.ActorIntended
	}
	return true
}
