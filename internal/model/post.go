package model

import "time"

// Post 内容主体
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string    `gorm:"type:varchar(36);index:idx_post_author;not null"`
	Text      string    `gorm:"type:varchar(500)"`
	ParentID  *string   `gorm:"type:varchar(36);index"` // 回复某条内容时指向父帖
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (Post) TableName() string { return "posts" }
