package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/croak-backend/internal/model"
)

func seedActivity(t *testing.T, db *gorm.DB) (start, end time.Time) {
	t.Helper()
	now := time.Now()
	start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	end = start.Add(24*time.Hour - time.Nanosecond)
	inWindow := start.Add(12 * time.Hour)

	users := []model.User{
		{ID: "author", Username: "author", Email: "a@example.com"},
		{ID: "fan1", Username: "fan1"},
		{ID: "fan2", Username: "fan2"},
	}
	require.NoError(t, db.Create(&users).Error)

	posts := []model.Post{
		{ID: "p1", AuthorID: "author", Text: "first", CreatedAt: inWindow},
		{ID: "p2", AuthorID: "author", Text: "second", CreatedAt: inWindow.Add(time.Minute)},
		{ID: "p3", AuthorID: "fan1", Text: "other", CreatedAt: inWindow},
		{ID: "old", AuthorID: "author", Text: "stale", CreatedAt: start.Add(-time.Hour)},
	}
	require.NoError(t, db.Create(&posts).Error)

	likes := []model.Like{
		{ID: uuid.New().String(), PostID: "p1", UserID: "fan1", CreatedAt: inWindow},
		{ID: uuid.New().String(), PostID: "p1", UserID: "fan2", CreatedAt: inWindow},
		{ID: uuid.New().String(), PostID: "p2", UserID: "fan1", CreatedAt: start.Add(-time.Hour)}, // 窗口外
	}
	require.NoError(t, db.Create(&likes).Error)

	comments := []model.Comment{
		{ID: uuid.New().String(), PostID: "p2", AuthorID: "fan1", Text: "nice", CreatedAt: inWindow},
	}
	require.NoError(t, db.Create(&comments).Error)

	follows := []model.Follow{
		{ID: uuid.New().String(), FollowerID: "fan1", FolloweeID: "author", CreatedAt: inWindow},
		{ID: uuid.New().String(), FollowerID: "fan2", FolloweeID: "author", CreatedAt: start.Add(-time.Hour)},
	}
	require.NoError(t, db.Create(&follows).Error)

	return start, end
}

func TestActivityCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()
	start, end := seedActivity(t, db)

	followers, err := repo.CountNewFollowers(ctx, "author", start, end)
	require.NoError(t, err)
	require.EqualValues(t, 1, followers)

	likes, err := repo.CountLikesReceived(ctx, "author", start, end)
	require.NoError(t, err)
	require.EqualValues(t, 2, likes)

	comments, err := repo.CountCommentsReceived(ctx, "author", start, end)
	require.NoError(t, err)
	require.EqualValues(t, 1, comments)
}

func TestTrendingPostsOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()
	start, end := seedActivity(t, db)

	trending, err := repo.TrendingPosts(ctx, start, end, 3)
	require.NoError(t, err)
	require.Len(t, trending, 3)

	// p1 与 p2 互动量持平（2），并列时按创建时间降序 → p2 在前
	require.Equal(t, "second", trending[0].Text)
	require.Equal(t, "first", trending[1].Text)
	require.EqualValues(t, 2, trending[1].Likes)
	require.Equal(t, "other", trending[2].Text)
}
