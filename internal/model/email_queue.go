package model

import "time"

// 队列状态机：pending → processing → {sent | pending(重试) | failed}
// sent / failed 为终态，仅保留清理可删除 sent 记录
const (
	EmailStatusPending    = "pending"
	EmailStatusProcessing = "processing"
	EmailStatusSent       = "sent"
	EmailStatusFailed     = "failed"
)

// 类型与优先级约定：数值越小越先投递
const (
	EmailTypeInstant = "instant"
	EmailTypeDigest  = "digest"
	EmailTypeWeekly  = "weekly"

	PriorityInstant = 3
	PriorityDigest  = 5
	PriorityWeekly  = 7
)

// EmailQueue 邮件外发队列记录；subject/body 创建后不可变，保证重试内容可复现
type EmailQueue struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)"`
	RecipientID  string     `gorm:"type:varchar(36);index:idx_email_recipient;not null"`
	EmailType    string     `gorm:"type:varchar(16);not null"`
	Subject      string     `gorm:"type:varchar(255);not null"`
	BodyHTML     string     `gorm:"type:text"`
	BodyText     string     `gorm:"type:text"`
	Status       string     `gorm:"type:varchar(16);index:idx_email_due;default:pending;not null"`
	Priority     int        `gorm:"index;not null"`
	ScheduledFor time.Time  `gorm:"index:idx_email_due;not null"`
	SentAt       *time.Time `gorm:"index"`
	ErrorMessage string     `gorm:"type:text"`
	RetryCount   int        `gorm:"default:0;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (EmailQueue) TableName() string { return "email_queue" }
