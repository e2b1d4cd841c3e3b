package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/croak-backend/internal/model"
)

// TrendingPost 摘要中的热门帖子
type TrendingPost struct {
	Author   string `json:"author"`
	Text     string `json:"text"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
}

// ActivityRepository 摘要窗口内的活动统计，纯查询无副作用
type ActivityRepository interface {
	CountNewFollowers(ctx context.Context, userID string, start, end time.Time) (int64, error)
	CountLikesReceived(ctx context.Context, userID string, start, end time.Time) (int64, error)
	CountCommentsReceived(ctx context.Context, userID string, start, end time.Time) (int64, error)
	// TrendingPosts 窗口内发布的帖子按 likes+comments 降序取前 limit 条
	// 并列时按创建时间降序（确定性次序）
	TrendingPosts(ctx context.Context, start, end time.Time, limit int) ([]TrendingPost, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) CountNewFollowers(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("followee_id = ? AND created_at >= ? AND created_at <= ?", userID, start, end).
		Count(&cnt).Error
	return cnt, err
}

func (r *activityRepository) CountLikesReceived(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Like{}).
		Joins("JOIN posts ON posts.id = likes.post_id").
		Where("posts.author_id = ? AND likes.created_at >= ? AND likes.created_at <= ?", userID, start, end).
		Count(&cnt).Error
	return cnt, err
}

func (r *activityRepository) CountCommentsReceived(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Joins("JOIN posts ON posts.id = comments.post_id").
		Where("posts.author_id = ? AND comments.created_at >= ? AND comments.created_at <= ?", userID, start, end).
		Count(&cnt).Error
	return cnt, err
}

func (r *activityRepository) TrendingPosts(ctx context.Context, start, end time.Time, limit int) ([]TrendingPost, error) {
	var rows []TrendingPost
	err := r.db.WithContext(ctx).Raw(`
        SELECT t.author, t.text, t.likes, t.comments FROM (
            SELECT u.username AS author,
                   p.text AS text,
                   p.created_at AS created_at,
                   (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS likes,
                   (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comments
            FROM posts p
            JOIN users u ON u.id = p.author_id
            WHERE p.created_at >= ? AND p.created_at <= ?
        ) t
        ORDER BY (t.likes + t.comments) DESC, t.created_at DESC
        LIMIT ?
    `, start, end, limit).Scan(&rows).Error
	return rows, err
}
