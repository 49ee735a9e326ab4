package model

import "time"

// Place 地点
type Place struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(128);not null;comment:名称" json:"name"`
	Type          string    `gorm:"type:varchar(64);comment:类型" json:"type"`
	GooglePlaceID string    `gorm:"type:varchar(128);index;comment:外部地点ID" json:"google_place_id,omitempty"`
	Lat           *float64  `json:"lat,omitempty"`
	Lng           *float64  `json:"lng,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Place) TableName() string { return "place" }

// PlaceVisibility 收藏地点可见性
type PlaceVisibility string

const (
	VisibilityPublic  PlaceVisibility = "public"
	VisibilityFriends PlaceVisibility = "friends"
	VisibilityPrivate PlaceVisibility = "private"
)

func (v PlaceVisibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityFriends || v == VisibilityPrivate
}

// UserPlace 用户收藏的地点
type UserPlace struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;index;comment:用户ID" json:"user_id"`
	PlaceID    uint            `gorm:"not null;comment:地点ID" json:"place_id"`
	Visibility PlaceVisibility `gorm:"type:varchar(16);not null;default:'friends'" json:"visibility"`
	CreatedAt  time.Time       `json:"created_at"`

	Place *Place `gorm:"foreignKey:PlaceID" json:"place,omitempty"`
}

func (UserPlace) TableName() string { return "user_place" }
