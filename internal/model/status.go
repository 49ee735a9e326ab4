package model

import "time"

// StatusPrivacy 签到可见范围
type StatusPrivacy string

const (
	PrivacyAll      StatusPrivacy = "all"      // 所有好友
	PrivacyIntended StatusPrivacy = "intended" // 仅自己有意向偶遇的好友
	PrivacySpecific StatusPrivacy = "specific" // 仅互相有意向的好友
)

func (p StatusPrivacy) Valid() bool {
	return p == PrivacyAll || p == PrivacyIntended || p == PrivacySpecific
}

// Status 签到状态，每个用户同一时间最多一条 active
type Status struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"not null;index:idx_user_active;comment:用户ID" json:"user_id"`
	PlaceID   uint          `gorm:"not null;comment:地点ID" json:"place_id"`
	Activity  string        `gorm:"type:varchar(255);comment:在做什么" json:"activity"`
	Privacy   StatusPrivacy `gorm:"type:varchar(16);not null;default:'all'" json:"privacy"`
	IsActive  bool          `gorm:"not null;default:true;index:idx_user_active" json:"is_active"`
	Timestamp time.Time     `gorm:"comment:签到时间" json:"timestamp"`

	User  *User  `gorm:"foreignKey:UserID" json:"-"`
	Place *Place `gorm:"foreignKey:PlaceID" json:"place,omitempty"`
}

func (Status) TableName() string { return "status" }

// Meetup 偶遇记录
type Meetup struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index;comment:记录人" json:"user_id"`
	FriendName     string    `gorm:"type:varchar(128);not null;comment:偶遇对象" json:"friend_name"`
	PlaceID        uint      `gorm:"not null" json:"place_id"`
	WasIntentional bool      `gorm:"not null;default:false;comment:是否有意为之" json:"was_intentional"`
	Timestamp      time.Time `gorm:"index" json:"timestamp"`

	Place *Place `gorm:"foreignKey:PlaceID" json:"place,omitempty"`
}

func (Meetup) TableName() string { return "meetup" }
