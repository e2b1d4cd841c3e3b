package model

import "time"

// User 用户（社交主体，邮件收件人）
type User struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Username    string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email       string `gorm:"type:varchar(255);index"`
	Password    string `gorm:"type:varchar(128)"` // bcrypt hash
	DisplayName string `gorm:"type:varchar(64)"`
	Bio         string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (User) TableName() string { return "users" }

// RecipientName 邮件称呼：优先展示名
func (u *User) RecipientName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
