package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User 用户模型
// 用户名唯一、邮箱唯一；密码仅存储哈希
type User struct {
	ID           uint           `gorm:"primaryKey"`
	Username     string         `gorm:"type:varchar(64);uniqueIndex;comment:用户名"`
	Email        string         `gorm:"type:varchar(128);not null;uniqueIndex;comment:邮箱"`
	PasswordHash string         `gorm:"type:varchar(255);not null;comment:密码哈希"`
	CreatedAt    time.Time      `gorm:"comment:创建时间"`
	UpdatedAt    time.Time      `gorm:"comment:更新时间"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// TableName 指定表名（全局配置使用单数表名）
func (User) TableName() string { return "user" }

// DisplayName 展示名：优先用户名，其次邮箱@前缀，最后 Anonymous
func (u *User) DisplayName() string {
	if u == nil {
		return "Anonymous"
	}
	if name := strings.TrimSpace(u.Username); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	if u.Email != "" {
		return u.Email
	}
	return "Anonymous"
}
