package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/croak-backend/internal/model"
	"github.com/d60-Lab/croak-backend/internal/repository"
)

func newNotifyService(db *gorm.DB) NotifyService {
	notifRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	queueRepo := repository.NewEmailQueueRepository(db, 3)
	prefRepo := repository.NewPreferenceRepository(db)
	mailSvc := NewMailService(queueRepo, prefRepo)
	return NewNotifyService(notifRepo, userRepo, mailSvc)
}

func countRows(t *testing.T, db *gorm.DB, value interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var cnt int64
	require.NoError(t, db.Model(value).Where(query, args...).Count(&cnt).Error)
	return cnt
}

func TestOnLikeRecordsAndEnqueues(t *testing.T) {
	db := setupTestDB(t)
	svc := newNotifyService(db)
	ctx := context.Background()

	alice := &model.User{ID: "alice", Username: "alice", Email: "alice@example.com"}
	bob := &model.User{ID: "bob", Username: "bob", DisplayName: "Bob", Email: "bob@example.com"}
	require.NoError(t, db.Create([]*model.User{alice, bob}).Error)
	post := &model.Post{ID: "p1", AuthorID: "bob", Text: "hello"}
	require.NoError(t, db.Create(post).Error)

	svc.OnLike(ctx, alice, post, bob)

	require.EqualValues(t, 1, countRows(t, db, &model.Notification{}, "notif_type = ? AND receiver_id = ?", "like", "bob"))

	var email model.EmailQueue
	require.NoError(t, db.First(&email).Error)
	require.Equal(t, "bob", email.RecipientID)
	require.Contains(t, email.Subject, "alice")
}

func TestOnLikeSkipsSelf(t *testing.T) {
	db := setupTestDB(t)
	svc := newNotifyService(db)
	ctx := context.Background()

	bob := &model.User{ID: "bob", Username: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(bob).Error)
	post := &model.Post{ID: "p1", AuthorID: "bob", Text: "hello"}
	require.NoError(t, db.Create(post).Error)

	svc.OnLike(ctx, bob, post, bob)

	require.Zero(t, countRows(t, db, &model.Notification{}, "1 = 1"))
	require.Zero(t, countRows(t, db, &model.EmailQueue{}, "1 = 1"))
}

func TestOnFollowDeduplicates(t *testing.T) {
	db := setupTestDB(t)
	svc := newNotifyService(db)
	ctx := context.Background()

	alice := &model.User{ID: "alice", Username: "alice", Email: "alice@example.com"}
	bob := &model.User{ID: "bob", Username: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Create([]*model.User{alice, bob}).Error)

	// 取关再关注不应重复提醒
	svc.OnFollow(ctx, alice, bob)
	svc.OnFollow(ctx, alice, bob)

	require.EqualValues(t, 1, countRows(t, db, &model.Notification{}, "notif_type = ?", "follow"))
	require.EqualValues(t, 1, countRows(t, db, &model.EmailQueue{}, "1 = 1"))
}

func TestNotifyMentions(t *testing.T) {
	db := setupTestDB(t)
	svc := newNotifyService(db)
	ctx := context.Background()

	alice := &model.User{ID: "alice", Username: "alice", Email: "alice@example.com"}
	bob := &model.User{ID: "bob", Username: "bob", Email: "bob@example.com"}
	carol := &model.User{ID: "carol", Username: "carol", Email: "carol@example.com"}
	require.NoError(t, db.Create([]*model.User{alice, bob, carol}).Error)

	// 重复提及、自我提及和不存在的用户都只算一次或忽略
	post := &model.Post{ID: "p1", AuthorID: "alice", Text: "hey @bob and @carol, also @bob again, @alice and @ghost"}
	require.NoError(t, db.Create(post).Error)

	svc.NotifyMentions(ctx, alice, post)

	require.EqualValues(t, 2, countRows(t, db, &model.Notification{}, "notif_type = ?", "mention"))
	require.EqualValues(t, 1, countRows(t, db, &model.Notification{}, "receiver_id = ?", "bob"))
	require.EqualValues(t, 1, countRows(t, db, &model.Notification{}, "receiver_id = ?", "carol"))
	require.Zero(t, countRows(t, db, &model.Notification{}, "receiver_id = ?", "alice"))
	require.EqualValues(t, 2, countRows(t, db, &model.EmailQueue{}, "1 = 1"))
}
