package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/croak-backend/internal/model"
)

func TestGetOrCreateDefaults(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	prefs, err := repo.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	require.True(t, prefs.EmailEnabled)
	require.True(t, prefs.EmailOnLike)
	require.False(t, prefs.DailyDigest)
	require.Equal(t, "08:00", prefs.DigestTime)
	require.Equal(t, "UTC", prefs.Timezone)
}

func TestGetOrCreateIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var cnt int64
	require.NoError(t, db.Model(&model.EmailPreferences{}).Where("user_id = ?", "u1").Count(&cnt).Error)
	require.EqualValues(t, 1, cnt)
}

func TestUpdatePreferences(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, "u1", map[string]interface{}{
		"daily_digest": true,
		"digest_time":  "21:30",
	}))

	prefs, err := repo.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	require.True(t, prefs.DailyDigest)
	h, m := prefs.DigestHourMinute()
	require.Equal(t, 21, h)
	require.Equal(t, 30, m)
}

func TestListDigestRecipients(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	users := []model.User{
		{ID: "u1", Username: "u1", Email: "u1@example.com"},
		{ID: "u2", Username: "u2", Email: "u2@example.com"},
		{ID: "u3", Username: "u3", Email: ""}, // 没有邮箱
		{ID: "u4", Username: "u4", Email: "u4@example.com"},
	}
	require.NoError(t, db.Create(&users).Error)

	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		_, err := repo.GetOrCreate(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, repo.Update(ctx, "u1", map[string]interface{}{"daily_digest": true}))
	require.NoError(t, repo.Update(ctx, "u3", map[string]interface{}{"daily_digest": true}))
	require.NoError(t, repo.Update(ctx, "u4", map[string]interface{}{"daily_digest": true, "email_enabled": false}))

	recipients, err := repo.ListDigestRecipients(ctx)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	require.Equal(t, "u1", recipients[0].ID)
}
