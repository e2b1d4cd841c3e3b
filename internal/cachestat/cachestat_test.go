package cachestat

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/croak-backend/internal/model"
	"github.com/d60-Lab/croak-backend/internal/repository"
)

func setupStatsCache(t *testing.T) (*StatsCache, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.EmailQueue{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	queueRepo := repository.NewEmailQueueRepository(db, 3)
	return New(queueRepo, rdb, 30*time.Second), db, mr
}

func seedPending(t *testing.T, db *gorm.DB) {
	t.Helper()
	e := &model.EmailQueue{
		ID:           uuid.New().String(),
		RecipientID:  "u1",
		EmailType:    model.EmailTypeInstant,
		Subject:      "s",
		BodyHTML:     "h",
		BodyText:     "t",
		Status:       model.EmailStatusPending,
		Priority:     model.PriorityInstant,
		ScheduledFor: time.Now(),
	}
	require.NoError(t, db.Create(e).Error)
}

func TestGetCachesSnapshot(t *testing.T) {
	sc, db, mr := setupStatsCache(t)
	ctx := context.Background()
	seedPending(t, db)

	stats, err := sc.Get(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Pending)
	require.True(t, mr.Exists(statsKey))

	// 缓存命中期间不反映底层变化
	seedPending(t, db)
	stats, err = sc.Get(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Pending)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	sc, db, mr := setupStatsCache(t)
	ctx := context.Background()
	seedPending(t, db)

	_, err := sc.Get(ctx)
	require.NoError(t, err)

	seedPending(t, db)
	sc.Invalidate(ctx)
	require.False(t, mr.Exists(statsKey))

	stats, err := sc.Get(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Pending)
}

func TestNilCacheDegradesToDirectQuery(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.EmailQueue{}))
	seedPending(t, db)

	sc := New(repository.NewEmailQueueRepository(db, 3), nil, time.Second)
	stats, err := sc.Get(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Pending)
}
