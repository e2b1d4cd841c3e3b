package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/croak-backend/internal/model"
)

const staleReleaseMessage = "processing timed out, released by reconciliation sweep"

// QueueStats 队列快照
type QueueStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Failed     int64 `json:"failed"`
	SentToday  int64 `json:"sent_today"`
}

// EmailQueueRepository 外发队列仓储
type EmailQueueRepository interface {
	Create(ctx context.Context, email *model.EmailQueue) error
	GetByID(ctx context.Context, id string) (*model.EmailQueue, error)
	// GetDue 取可投递记录：pending 且到期且未达重试上限，按 (priority, scheduled_for) 升序
	GetDue(ctx context.Context, limit int) ([]*model.EmailQueue, error)
	// Claim 以条件更新抢占记录（pending → processing）；返回 false 表示已被其他调用抢走
	Claim(ctx context.Context, id string) (bool, error)
	MarkSent(ctx context.Context, id string) error
	// MarkFailed 按重试规则回退到 pending 或进入终态 failed，retry_count 恒递增
	MarkFailed(ctx context.Context, id string, reason string) error
	// ReleaseStale 回收卡在 processing 超过阈值的记录，走同一套重试规则
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
	Stats(ctx context.Context) (*QueueStats, error)
	// Cleanup 仅删除超过保留期的 sent 记录
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

type emailQueueRepository struct {
	db         *gorm.DB
	maxRetries int
}

func NewEmailQueueRepository(db *gorm.DB, maxRetries int) EmailQueueRepository {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &emailQueueRepository{db: db, maxRetries: maxRetries}
}

func (r *emailQueueRepository) Create(ctx context.Context, email *model.EmailQueue) error {
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	if email.Status == "" {
		email.Status = model.EmailStatusPending
	}
	return r.db.WithContext(ctx).Create(email).Error
}

func (r *emailQueueRepository) GetByID(ctx context.Context, id string) (*model.EmailQueue, error) {
	var email model.EmailQueue
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&email).Error; err != nil {
		return nil, err
	}
	return &email, nil
}

func (r *emailQueueRepository) GetDue(ctx context.Context, limit int) ([]*model.EmailQueue, error) {
	var emails []*model.EmailQueue
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ? AND retry_count < ?",
			model.EmailStatusPending, time.Now(), r.maxRetries).
		Order("priority ASC, scheduled_for ASC").
		Limit(limit).
		Find(&emails).Error
	return emails, err
}

func (r *emailQueueRepository) Claim(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.EmailQueue{}).
		Where("id = ? AND status = ?", id, model.EmailStatusPending).
		Update("status", model.EmailStatusProcessing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *emailQueueRepository) MarkSent(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.EmailQueue{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.EmailStatusSent,
			"sent_at":       now,
			"error_message": "",
		}).Error
}

func (r *emailQueueRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var email model.EmailQueue
		if err := tx.Where("id = ?", id).First(&email).Error; err != nil {
			return err
		}
		// 还能重试则回到 pending，否则终态 failed
		status := model.EmailStatusPending
		if email.RetryCount >= r.maxRetries-1 {
			status = model.EmailStatusFailed
		}
		return tx.Model(&model.EmailQueue{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":        status,
				"retry_count":   gorm.Expr("retry_count + 1"),
				"error_message": reason,
			}).Error
	})
}

func (r *emailQueueRepository) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	var released int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 已到上限的直接终态
		res := tx.Model(&model.EmailQueue{}).
			Where("status = ? AND updated_at < ? AND retry_count >= ?",
				model.EmailStatusProcessing, cutoff, r.maxRetries-1).
			Updates(map[string]interface{}{
				"status":        model.EmailStatusFailed,
				"retry_count":   gorm.Expr("retry_count + 1"),
				"error_message": staleReleaseMessage,
			})
		if res.Error != nil {
			return res.Error
		}
		released += res.RowsAffected

		// 其余回到 pending 等待下一轮
		res = tx.Model(&model.EmailQueue{}).
			Where("status = ? AND updated_at < ?", model.EmailStatusProcessing, cutoff).
			Updates(map[string]interface{}{
				"status":        model.EmailStatusPending,
				"retry_count":   gorm.Expr("retry_count + 1"),
				"error_message": staleReleaseMessage,
			})
		if res.Error != nil {
			return res.Error
		}
		released += res.RowsAffected
		return nil
	})
	return released, err
}

func (r *emailQueueRepository) Stats(ctx context.Context) (*QueueStats, error) {
	stats := &QueueStats{}
	count := func(dest *int64, query string, args ...interface{}) error {
		return r.db.WithContext(ctx).
			Model(&model.EmailQueue{}).
			Where(query, args...).
			Count(dest).Error
	}

	if err := count(&stats.Pending, "status = ?", model.EmailStatusPending); err != nil {
		return nil, err
	}
	if err := count(&stats.Processing, "status = ?", model.EmailStatusProcessing); err != nil {
		return nil, err
	}
	if err := count(&stats.Failed, "status = ?", model.EmailStatusFailed); err != nil {
		return nil, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := count(&stats.SentToday, "status = ? AND sent_at >= ?", model.EmailStatusSent, midnight); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *emailQueueRepository) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	res := r.db.WithContext(ctx).
		Where("status = ? AND sent_at < ?", model.EmailStatusSent, cutoff).
		Delete(&model.EmailQueue{})
	return res.RowsAffected, res.Error
}
