package model

import "time"

// Notification 站内通知（由事件钩子写入，与外发邮件解耦）
type Notification struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	SenderID  string    `gorm:"type:varchar(36);index;not null"`
	ReceiverID string   `gorm:"type:varchar(36);index;not null"`
	NotifType string    `gorm:"type:varchar(16);not null"` // like, comment, follow, mention, reply
	PostID    *string   `gorm:"type:varchar(36)"`
	Message   string    `gorm:"type:varchar(255)"`
	IsRead    bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"index"`
}

func (Notification) TableName() string { return "notifications" }
