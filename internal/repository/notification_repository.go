package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/croak-backend/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// ExistsFollow 同一对用户的 follow 通知只发一次
	ExistsFollow(ctx context.Context, senderID, receiverID string) (bool, error)
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ExistsFollow(ctx context.Context, senderID, receiverID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("sender_id = ? AND receiver_id = ? AND notif_type = ?", senderID, receiverID, "follow").
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}
