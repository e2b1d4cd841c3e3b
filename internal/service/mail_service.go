package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/croak-backend/internal/mailer"
	"github.com/d60-Lab/croak-backend/internal/model"
	"github.com/d60-Lab/croak-backend/internal/repository"
	"github.com/d60-Lab/croak-backend/pkg/logger"
)

// MailService 偏好闸门 + 入队；所有"不发"的情形返回 (nil, nil) 而不是错误
type MailService interface {
	// ShouldSend 依据收件人偏好判断该事件是否产生邮件；未知事件类型一律拒绝
	ShouldSend(ctx context.Context, userID string, eventType mailer.EventType) (bool, error)
	// EnqueueInstant 即时通知入队：priority=3，scheduled_for=now
	EnqueueInstant(ctx context.Context, recipient *model.User, eventType mailer.EventType, nctx mailer.NotificationContext) (*model.EmailQueue, error)
	// EnqueueDigest 摘要入队：priority=5，scheduled_for=明天的 digest_time（秒归零）
	EnqueueDigest(ctx context.Context, recipient *model.User, data mailer.DigestData) (*model.EmailQueue, error)
}

type mailService struct {
	queueRepo repository.EmailQueueRepository
	prefRepo  repository.PreferenceRepository
}

func NewMailService(queueRepo repository.EmailQueueRepository, prefRepo repository.PreferenceRepository) MailService {
	return &mailService{queueRepo: queueRepo, prefRepo: prefRepo}
}

func (s *mailService) ShouldSend(ctx context.Context, userID string, eventType mailer.EventType) (bool, error) {
	prefs, err := s.prefRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}
	if !prefs.EmailEnabled {
		return false, nil
	}
	switch eventType {
	case mailer.EventLike:
		return prefs.EmailOnLike, nil
	case mailer.EventComment:
		return prefs.EmailOnComment, nil
	case mailer.EventFollow:
		return prefs.EmailOnFollow, nil
	case mailer.EventMention:
		return prefs.EmailOnMention, nil
	case mailer.EventReply:
		return prefs.EmailOnReply, nil
	}
	// 未知类型视为不发
	return false, nil
}

func (s *mailService) EnqueueInstant(ctx context.Context, recipient *model.User, eventType mailer.EventType, nctx mailer.NotificationContext) (*model.EmailQueue, error) {
	ok, err := s.ShouldSend(ctx, recipient.ID, eventType)
	if err != nil {
		return nil, err
	}
	if !ok || recipient.Email == "" {
		return nil, nil
	}

	subject, htmlBody, textBody := mailer.RenderNotification(eventType, nctx)
	email := &model.EmailQueue{
		RecipientID:  recipient.ID,
		EmailType:    model.EmailTypeInstant,
		Subject:      subject,
		BodyHTML:     htmlBody,
		BodyText:     textBody,
		Status:       model.EmailStatusPending,
		Priority:     model.PriorityInstant,
		ScheduledFor: time.Now(),
	}
	if err := s.queueRepo.Create(ctx, email); err != nil {
		return nil, err
	}
	logger.Debug("queued instant email",
		zap.String("recipient", recipient.ID), zap.String("event", string(eventType)))
	return email, nil
}

func (s *mailService) EnqueueDigest(ctx context.Context, recipient *model.User, data mailer.DigestData) (*model.EmailQueue, error) {
	prefs, err := s.prefRepo.GetOrCreate(ctx, recipient.ID)
	if err != nil {
		return nil, err
	}
	if !prefs.DailyDigest || !prefs.EmailEnabled || recipient.Email == "" {
		return nil, nil
	}

	subject, htmlBody, textBody := mailer.RenderDigest(data, recipient.RecipientName())

	// 明天的 digest_time：now+1 天后把时分替换为偏好值、秒归零
	// 注意这不是"下一次 digest_time"，与上游行为保持一致
	hour, minute := prefs.DigestHourMinute()
	now := time.Now()
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()).
		AddDate(0, 0, 1)

	email := &model.EmailQueue{
		RecipientID:  recipient.ID,
		EmailType:    model.EmailTypeDigest,
		Subject:      subject,
		BodyHTML:     htmlBody,
		BodyText:     textBody,
		Status:       model.EmailStatusPending,
		Priority:     model.PriorityDigest,
		ScheduledFor: scheduled,
	}
	if err := s.queueRepo.Create(ctx, email); err != nil {
		return nil, err
	}
	logger.Debug("queued digest email", zap.String("recipient", recipient.ID))
	return email, nil
}
