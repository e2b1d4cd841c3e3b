package model

import "time"

// EmailPreferences 每用户邮件偏好，首次访问时惰性创建
// user_id 唯一索引保证并发创建不产生重复行
type EmailPreferences struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	UserID string `gorm:"type:varchar(36);uniqueIndex:ux_email_prefs_user;not null"`

	EmailOnLike    bool `gorm:"default:true;not null"`
	EmailOnComment bool `gorm:"default:true;not null"`
	EmailOnFollow  bool `gorm:"default:true;not null"`
	EmailOnMention bool `gorm:"default:true;not null"`
	EmailOnReply   bool `gorm:"default:true;not null"`

	DailyDigest   bool `gorm:"default:false;not null"`
	WeeklySummary bool `gorm:"default:false;not null"`

	// DigestTime "HH:MM"，决定 digest 记录的 scheduled_for 时刻
	DigestTime string `gorm:"type:varchar(5);default:'08:00';not null"`
	// Timezone 仅存储，调度算术目前不使用（与上游行为一致）
	Timezone string `gorm:"type:varchar(64);default:'UTC';not null"`

	// EmailEnabled 总开关，false 时任何类型都不入队
	EmailEnabled bool `gorm:"default:true;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (EmailPreferences) TableName() string { return "email_preferences" }

// DigestHourMinute 解析 DigestTime；非法值回落到 08:00
func (p *EmailPreferences) DigestHourMinute() (int, int) {
	t, err := time.Parse("15:04", p.DigestTime)
	if err != nil {
		return 8, 0
	}
	return t.Hour(), t.Minute()
}
