package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/croak-backend/internal/mailer"
	"github.com/d60-Lab/croak-backend/internal/repository"
	"github.com/d60-Lab/croak-backend/pkg/logger"
)

// DispatchResult 单次排水的聚合结果
type DispatchResult struct {
	Total  int `json:"total_processed"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Dispatcher 队列排水器：由外部定时调用，单线程顺序投递
// 并发安全性完全依赖仓储层的条件更新抢占（pending → processing）
type Dispatcher struct {
	queueRepo      repository.EmailQueueRepository
	userRepo       repository.UserRepository
	transport      mailer.Transport
	limiter        *rate.Limiter
	staleThreshold time.Duration
}

func NewDispatcher(queueRepo repository.EmailQueueRepository, userRepo repository.UserRepository,
	transport mailer.Transport, ratePerSecond float64, staleThreshold time.Duration) *Dispatcher {
	if ratePerSecond <= 0 {
		ratePerSecond = 2
	}
	if staleThreshold <= 0 {
		staleThreshold = 15 * time.Minute
	}
	return &Dispatcher{
		queueRepo:      queueRepo,
		userRepo:       userRepo,
		transport:      transport,
		limiter:        rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		staleThreshold: staleThreshold,
	}
}

// ProcessQueue 取到期记录逐条投递；单条失败不影响后续，仅存储层故障作为批级错误返回
func (d *Dispatcher) ProcessQueue(ctx context.Context, limit int) (*DispatchResult, error) {
	if limit <= 0 {
		limit = 100
	}

	// 先回收上一个 worker 崩溃后卡在 processing 的记录
	if released, err := d.queueRepo.ReleaseStale(ctx, d.staleThreshold); err != nil {
		return nil, fmt.Errorf("release stale entries: %w", err)
	} else if released > 0 {
		logger.Warn("released stale processing emails", zap.Int64("count", released))
	}

	due, err := d.queueRepo.GetDue(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due emails: %w", err)
	}

	result := &DispatchResult{Total: len(due)}
	for _, email := range due {
		claimed, err := d.queueRepo.Claim(ctx, email.ID)
		if err != nil {
			return result, fmt.Errorf("claim email %s: %w", email.ID, err)
		}
		if !claimed {
			// 已被并发的排水调用抢走
			continue
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return result, err
		}

		if err := d.deliverOne(ctx, email.RecipientID, email.Subject, email.BodyHTML, email.BodyText); err != nil {
			result.Failed++
			if mErr := d.queueRepo.MarkFailed(ctx, email.ID, err.Error()); mErr != nil {
				logger.Error("mark email failed", zap.String("id", email.ID), zap.Error(mErr))
			}
			logger.Warn("email delivery failed",
				zap.String("id", email.ID), zap.String("recipient", email.RecipientID), zap.Error(err))
			continue
		}

		result.Sent++
		if err := d.queueRepo.MarkSent(ctx, email.ID); err != nil {
			logger.Error("mark email sent", zap.String("id", email.ID), zap.Error(err))
		}
	}

	logger.Info("queue drained",
		zap.Int("total", result.Total), zap.Int("sent", result.Sent), zap.Int("failed", result.Failed))
	return result, nil
}

func (d *Dispatcher) deliverOne(ctx context.Context, recipientID, subject, htmlBody, textBody string) error {
	user, err := d.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	if user.Email == "" {
		return fmt.Errorf("recipient %s has no email address", recipientID)
	}
	return d.transport.Deliver(ctx, user.Email, subject, htmlBody, textBody)
}
