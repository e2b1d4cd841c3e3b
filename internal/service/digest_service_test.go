package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/croak-backend/internal/model"
	"github.com/d60-Lab/croak-backend/internal/repository"
)

func newDigestService(db *gorm.DB) (DigestService, repository.PreferenceRepository) {
	activityRepo := repository.NewActivityRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	queueRepo := repository.NewEmailQueueRepository(db, 3)
	mailSvc := NewMailService(queueRepo, prefRepo)
	return NewDigestService(activityRepo, prefRepo, mailSvc), prefRepo
}

// seedYesterday 在昨日窗口内给 author 造一条粉丝、两个赞和一条评论
func seedYesterday(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Now()
	inWindow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -1).Add(12 * time.Hour)

	users := []model.User{
		{ID: "author", Username: "author", Email: "author@example.com"},
		{ID: "fan", Username: "fan", Email: "fan@example.com"},
	}
	require.NoError(t, db.Create(&users).Error)

	post := model.Post{ID: "p1", AuthorID: "author", Text: "hello", CreatedAt: inWindow}
	require.NoError(t, db.Create(&post).Error)
	require.NoError(t, db.Create(&model.Like{ID: uuid.New().String(), PostID: "p1", UserID: "fan", CreatedAt: inWindow}).Error)
	require.NoError(t, db.Create(&model.Comment{ID: uuid.New().String(), PostID: "p1", AuthorID: "fan", Text: "hi", CreatedAt: inWindow}).Error)
	require.NoError(t, db.Create(&model.Follow{ID: uuid.New().String(), FollowerID: "fan", FolloweeID: "author", CreatedAt: inWindow}).Error)
}

func TestBuildDigestAggregates(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newDigestService(db)
	ctx := context.Background()
	seedYesterday(t, db)

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	end := start.Add(24*time.Hour - time.Nanosecond)

	data, err := svc.BuildDigest(ctx, "author", start, end)
	require.NoError(t, err)
	require.EqualValues(t, 1, data.NewFollowers)
	require.EqualValues(t, 1, data.TotalLikes)
	require.EqualValues(t, 1, data.TotalComments)
	require.NotEmpty(t, data.TrendingPosts)
	require.True(t, data.HasActivity())
}

func TestRunDailyQueuesActiveUsers(t *testing.T) {
	db := setupTestDB(t)
	svc, prefRepo := newDigestService(db)
	ctx := context.Background()
	seedYesterday(t, db)

	for _, id := range []string{"author", "fan"} {
		_, err := prefRepo.GetOrCreate(ctx, id)
		require.NoError(t, err)
		require.NoError(t, prefRepo.Update(ctx, id, map[string]interface{}{"daily_digest": true}))
	}

	res, err := svc.RunDaily(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.TotalUsers)
	// 昨日有热门帖子，HasActivity 对两人都成立
	require.Equal(t, 2, res.Queued)
	require.Zero(t, res.Skipped)

	var emails []model.EmailQueue
	require.NoError(t, db.Where("email_type = ?", model.EmailTypeDigest).Find(&emails).Error)
	require.Len(t, emails, 2)
	for _, e := range emails {
		require.Equal(t, model.PriorityDigest, e.Priority)
		require.Equal(t, model.EmailStatusPending, e.Status)
	}
}

func TestRunDailySkipsQuietUsers(t *testing.T) {
	db := setupTestDB(t)
	svc, prefRepo := newDigestService(db)
	ctx := context.Background()

	// 无任何活动的用户不应收到空摘要
	require.NoError(t, db.Create(&model.User{ID: "quiet", Username: "quiet", Email: "q@example.com"}).Error)
	_, err := prefRepo.GetOrCreate(ctx, "quiet")
	require.NoError(t, err)
	require.NoError(t, prefRepo.Update(ctx, "quiet", map[string]interface{}{"daily_digest": true}))

	res, err := svc.RunDaily(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalUsers)
	require.Zero(t, res.Queued)
	require.Equal(t, 1, res.Skipped)

	var cnt int64
	require.NoError(t, db.Model(&model.EmailQueue{}).Count(&cnt).Error)
	require.Zero(t, cnt)
}

func TestRunDailyIgnoresOptedOutUsers(t *testing.T) {
	db := setupTestDB(t)
	svc, prefRepo := newDigestService(db)
	ctx := context.Background()
	seedYesterday(t, db)

	// author 未开启 daily_digest（默认关闭）
	_, err := prefRepo.GetOrCreate(ctx, "author")
	require.NoError(t, err)

	res, err := svc.RunDaily(ctx)
	require.NoError(t, err)
	require.Zero(t, res.TotalUsers)
	require.Zero(t, res.Queued)
}
