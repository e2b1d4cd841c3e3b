package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/croak-backend/internal/mailer"
	"github.com/d60-Lab/croak-backend/internal/model"
	"github.com/d60-Lab/croak-backend/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Post{}, &model.Like{}, &model.Comment{},
		&model.Follow{}, &model.Notification{},
		&model.EmailQueue{}, &model.EmailPreferences{},
	))
	return db
}

func newMailService(t *testing.T, db *gorm.DB) (MailService, repository.EmailQueueRepository, repository.PreferenceRepository) {
	t.Helper()
	queueRepo := repository.NewEmailQueueRepository(db, 3)
	prefRepo := repository.NewPreferenceRepository(db)
	return NewMailService(queueRepo, prefRepo), queueRepo, prefRepo
}

func TestEnqueueInstantLikeScenario(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newMailService(t, db)
	ctx := context.Background()

	bob := &model.User{ID: "bob", Username: "bob", DisplayName: "Bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(bob).Error)

	before := time.Now()
	email, err := svc.EnqueueInstant(ctx, bob, mailer.EventLike, mailer.NotificationContext{
		Sender:        "Alice",
		RecipientName: "Bob",
		PostText:      "Hello world this is my first post",
		PostURL:       "https://x/1",
	})
	require.NoError(t, err)
	require.NotNil(t, email)

	require.Equal(t, model.EmailTypeInstant, email.EmailType)
	require.Equal(t, model.PriorityInstant, email.Priority)
	require.Equal(t, model.EmailStatusPending, email.Status)
	require.Contains(t, email.Subject, "Alice")
	require.Contains(t, email.Subject, "liked")
	require.WithinDuration(t, before, email.ScheduledFor, 5*time.Second)
	require.Equal(t, 0, email.RetryCount)
}

func TestEnqueueInstantMasterSwitchOff(t *testing.T) {
	db := setupTestDB(t)
	svc, _, prefRepo := newMailService(t, db)
	ctx := context.Background()

	user := &model.User{ID: "u1", Username: "u1", Email: "u1@example.com"}
	require.NoError(t, db.Create(user).Error)
	_, err := prefRepo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, prefRepo.Update(ctx, user.ID, map[string]interface{}{"email_enabled": false}))

	// 总开关关闭时任何事件类型都不产生邮件
	for _, ev := range []mailer.EventType{mailer.EventLike, mailer.EventComment, mailer.EventFollow, mailer.EventMention, mailer.EventReply} {
		email, err := svc.EnqueueInstant(ctx, user, ev, mailer.NotificationContext{Sender: "x"})
		require.NoError(t, err)
		require.Nil(t, email)
	}

	var cnt int64
	require.NoError(t, db.Model(&model.EmailQueue{}).Count(&cnt).Error)
	require.Zero(t, cnt)
}

func TestEnqueueInstantPerTypeFlag(t *testing.T) {
	db := setupTestDB(t)
	svc, _, prefRepo := newMailService(t, db)
	ctx := context.Background()

	user := &model.User{ID: "u1", Username: "u1", Email: "u1@example.com"}
	require.NoError(t, db.Create(user).Error)
	_, err := prefRepo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, prefRepo.Update(ctx, user.ID, map[string]interface{}{"email_on_like": false}))

	email, err := svc.EnqueueInstant(ctx, user, mailer.EventLike, mailer.NotificationContext{})
	require.NoError(t, err)
	require.Nil(t, email)

	email, err = svc.EnqueueInstant(ctx, user, mailer.EventComment, mailer.NotificationContext{})
	require.NoError(t, err)
	require.NotNil(t, email)
}

func TestEnqueueInstantUnknownEventFailsClosed(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newMailService(t, db)
	ctx := context.Background()

	user := &model.User{ID: "u1", Username: "u1", Email: "u1@example.com"}
	require.NoError(t, db.Create(user).Error)

	email, err := svc.EnqueueInstant(ctx, user, mailer.EventType("poke"), mailer.NotificationContext{})
	require.NoError(t, err)
	require.Nil(t, email)
}

func TestEnqueueInstantNoEmailAddress(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newMailService(t, db)
	ctx := context.Background()

	user := &model.User{ID: "u1", Username: "u1", Email: ""}
	require.NoError(t, db.Create(user).Error)

	email, err := svc.EnqueueInstant(ctx, user, mailer.EventLike, mailer.NotificationContext{})
	require.NoError(t, err)
	require.Nil(t, email)
}

func TestEnqueueDigestScheduling(t *testing.T) {
	db := setupTestDB(t)
	svc, _, prefRepo := newMailService(t, db)
	ctx := context.Background()

	user := &model.User{ID: "u1", Username: "u1", Email: "u1@example.com"}
	require.NoError(t, db.Create(user).Error)
	_, err := prefRepo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, prefRepo.Update(ctx, user.ID, map[string]interface{}{
		"daily_digest": true,
		"digest_time":  "09:15",
	}))

	email, err := svc.EnqueueDigest(ctx, user, mailer.DigestData{NewFollowers: 2})
	require.NoError(t, err)
	require.NotNil(t, email)
	require.Equal(t, model.EmailTypeDigest, email.EmailType)
	require.Equal(t, model.PriorityDigest, email.Priority)

	// 明天同日 + 偏好时刻，秒归零
	expected := time.Now().AddDate(0, 0, 1)
	require.Equal(t, expected.Day(), email.ScheduledFor.Day())
	require.Equal(t, 9, email.ScheduledFor.Hour())
	require.Equal(t, 15, email.ScheduledFor.Minute())
	require.Equal(t, 0, email.ScheduledFor.Second())
}

func TestEnqueueDigestDisabled(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newMailService(t, db)
	ctx := context.Background()

	// 默认 daily_digest=false
	user := &model.User{ID: "u1", Username: "u1", Email: "u1@example.com"}
	require.NoError(t, db.Create(user).Error)

	email, err := svc.EnqueueDigest(ctx, user, mailer.DigestData{NewFollowers: 1})
	require.NoError(t, err)
	require.Nil(t, email)
}

func TestEnqueueDigestNoEmailAddress(t *testing.T) {
	db := setupTestDB(t)
	svc, _, prefRepo := newMailService(t, db)
	ctx := context.Background()

	user := &model.User{ID: "u1", Username: "u1", Email: ""}
	require.NoError(t, db.Create(user).Error)
	_, err := prefRepo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, prefRepo.Update(ctx, user.ID, map[string]interface{}{"daily_digest": true}))

	email, err := svc.EnqueueDigest(ctx, user, mailer.DigestData{TotalLikes: 3})
	require.NoError(t, err)
	require.Nil(t, email)
}
