package model

import (
	"fmt"
	"time"
)

// NotifyScope 通知范围
type NotifyScope string

const (
	NotifyAll      NotifyScope = "all"
	NotifyIntended NotifyScope = "intended"
	NotifyNone     NotifyScope = "none"
)

func (s NotifyScope) Valid() bool {
	switch s {
	case NotifyAll, NotifyIntended, NotifyNone:
		return true
	}
	return false
}

// 默认设置
const (
	DefaultAvailabilityStart = "09:00"
	DefaultAvailabilityEnd   = "17:00"
)

// Settings 通知设置，每个用户一条
type Settings struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	UserID            uint        `gorm:"not null;uniqueIndex;comment:用户ID" json:"user_id"`
	AvailabilityStart string      `gorm:"type:varchar(5);not null;default:'09:00';comment:可用开始时间" json:"availability_start"`
	AvailabilityEnd   string      `gorm:"type:varchar(5);not null;default:'17:00';comment:可用结束时间" json:"availability_end"`
	NotifyFor         NotifyScope `gorm:"type:varchar(16);not null;default:'all';comment:通知范围" json:"notify_for"`
	DoNotDisturb      bool        `gorm:"not null;default:false;comment:免打扰" json:"do_not_disturb"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

func (Settings) TableName() string { return "settings" }

// DefaultSettings 首次访问时创建的默认设置
func DefaultSettings(userID uint) *Settings {
	return &Settings{
		UserID:            userID,
		AvailabilityStart: DefaultAvailabilityStart,
		AvailabilityEnd:   DefaultAvailabilityEnd,
		NotifyFor:         NotifyAll,
		DoNotDisturb:      false,
	}
}

// ParseClock 解析 HH:MM，返回当天第几分钟
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
