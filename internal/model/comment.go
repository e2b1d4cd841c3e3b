package model

import "time"

// Comment 评论
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	PostID    string    `gorm:"type:varchar(36);index:idx_comment_post;not null"`
	AuthorID  string    `gorm:"type:varchar(36);index;not null"`
	Text      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

func (Comment) TableName() string { return "comments" }
