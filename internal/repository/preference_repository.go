package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/croak-backend/internal/model"
)

// PreferenceRepository 邮件偏好仓储
type PreferenceRepository interface {
	// GetOrCreate 惰性创建：并发首次访问依赖 user_id 唯一索引去重
	GetOrCreate(ctx context.Context, userID string) (*model.EmailPreferences, error)
	Update(ctx context.Context, userID string, fields map[string]interface{}) error
	// ListDigestRecipients 列出开启每日摘要且邮箱非空的用户
	ListDigestRecipients(ctx context.Context) ([]*model.User, error)
}

type preferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) GetOrCreate(ctx context.Context, userID string) (*model.EmailPreferences, error) {
	defaults := &model.EmailPreferences{
		ID:             uuid.New().String(),
		UserID:         userID,
		EmailOnLike:    true,
		EmailOnComment: true,
		EmailOnFollow:  true,
		EmailOnMention: true,
		EmailOnReply:   true,
		DigestTime:     "08:00",
		Timezone:       "UTC",
		EmailEnabled:   true,
	}
	// 幂等插入：已存在则由唯一索引吞掉
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(defaults).Error; err != nil {
		return nil, err
	}

	var prefs model.EmailPreferences
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error; err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (r *preferenceRepository) Update(ctx context.Context, userID string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.EmailPreferences{}).
		Where("user_id = ?", userID).
		Updates(fields).Error
}

func (r *preferenceRepository) ListDigestRecipients(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Joins("JOIN email_preferences ON email_preferences.user_id = users.id").
		Where("email_preferences.daily_digest = ? AND email_preferences.email_enabled = ?", true, true).
		Where("users.email <> ''").
		Find(&users).Error
	return users, err
}
