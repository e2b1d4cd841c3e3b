package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/croak-backend/internal/mailer"
	"github.com/d60-Lab/croak-backend/internal/repository"
	"github.com/d60-Lab/croak-backend/pkg/logger"
)

const trendingLimit = 3

// DigestRunResult 每日摘要批处理结果
type DigestRunResult struct {
	TotalUsers int `json:"total_users"`
	Queued     int `json:"queued"`
	Skipped    int `json:"skipped"`
}

// DigestService 时间窗口活动聚合；是否入队由 HasActivity 判定，聚合本身无副作用
type DigestService interface {
	// BuildDigest 统计 [start, end]（闭区间）内的新增粉丝/获赞/获评与热门帖子
	BuildDigest(ctx context.Context, userID string, start, end time.Time) (mailer.DigestData, error)
	// RunDaily 为所有开启摘要的用户聚合昨日活动并入队；单个用户失败不影响其他用户
	RunDaily(ctx context.Context) (*DigestRunResult, error)
}

type digestService struct {
	activityRepo repository.ActivityRepository
	prefRepo     repository.PreferenceRepository
	mailSvc      MailService
}

func NewDigestService(activityRepo repository.ActivityRepository, prefRepo repository.PreferenceRepository, mailSvc MailService) DigestService {
	return &digestService{activityRepo: activityRepo, prefRepo: prefRepo, mailSvc: mailSvc}
}

func (s *digestService) BuildDigest(ctx context.Context, userID string, start, end time.Time) (mailer.DigestData, error) {
	var data mailer.DigestData
	var err error

	if data.NewFollowers, err = s.activityRepo.CountNewFollowers(ctx, userID, start, end); err != nil {
		return data, err
	}
	if data.TotalLikes, err = s.activityRepo.CountLikesReceived(ctx, userID, start, end); err != nil {
		return data, err
	}
	if data.TotalComments, err = s.activityRepo.CountCommentsReceived(ctx, userID, start, end); err != nil {
		return data, err
	}

	trending, err := s.activityRepo.TrendingPosts(ctx, start, end, trendingLimit)
	if err != nil {
		return data, err
	}
	data.TrendingPosts = make([]mailer.TrendingPost, 0, len(trending))
	for _, p := range trending {
		data.TrendingPosts = append(data.TrendingPosts, mailer.TrendingPost{
			Author: p.Author, Text: p.Text, Likes: p.Likes, Comments: p.Comments,
		})
	}
	return data, nil
}

func (s *digestService) RunDaily(ctx context.Context) (*DigestRunResult, error) {
	users, err := s.prefRepo.ListDigestRecipients(ctx)
	if err != nil {
		return nil, err
	}

	// 昨日窗口 [00:00:00, 23:59:59.999...]
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	end := start.Add(24*time.Hour - time.Nanosecond)

	result := &DigestRunResult{TotalUsers: len(users)}
	for _, user := range users {
		data, err := s.BuildDigest(ctx, user.ID, start, end)
		if err != nil {
			logger.Error("build digest", zap.String("user", user.ID), zap.Error(err))
			result.Skipped++
			continue
		}
		if !data.HasActivity() {
			result.Skipped++
			continue
		}
		email, err := s.mailSvc.EnqueueDigest(ctx, user, data)
		if err != nil {
			logger.Error("enqueue digest", zap.String("user", user.ID), zap.Error(err))
			result.Skipped++
			continue
		}
		if email != nil {
			result.Queued++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}
