package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/autoparts/internal/auth/domain"
	cartdomain "github.com/smallbiznis/autoparts/internal/cart/domain"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/pkg/db/dbtest"
	"github.com/smallbiznis/autoparts/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Scheduler, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, &authdomain.Session{}, &cartdomain.Cart{}, &cartdomain.Item{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	sched, err := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clock.NewFakeClock(now),
		Locker: lock.NewLocalLocker(lock.DefaultOptions()),
		Config: Config{BatchSize: 2},
	})
	require.NoError(t, err)
	return sched, db
}

func session(t *testing.T, db *gorm.DB, id int64, expiresAt time.Time, revokedAt *time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&authdomain.Session{
		ID:               id,
		UserID:           1,
		SessionTokenHash: snowflake.ID(id).String(),
		ExpiresAt:        expiresAt,
		RevokedAt:        revokedAt,
		CreatedAt:        expiresAt.Add(-time.Hour),
		LastSeenAt:       expiresAt.Add(-time.Hour),
	}).Error)
}

func cart(t *testing.T, db *gorm.DB, id, userID int64, updatedAt time.Time, withItem bool) {
	t.Helper()
	require.NoError(t, db.Create(&cartdomain.Cart{ID: id, UserID: userID, CreatedAt: updatedAt, UpdatedAt: updatedAt}).Error)
	if withItem {
		require.NoError(t, db.Create(&cartdomain.Item{
			ID:                id * 10,
			CartID:            id,
			ProductID:         99,
			Quantity:          1,
			OriginalUnitPrice: decimal.NewFromInt(10),
			FinalUnitPrice:    decimal.NewFromInt(10),
			CreatedAt:         updatedAt,
			UpdatedAt:         updatedAt,
		}).Error)
	}
}

func remainingIDs(t *testing.T, db *gorm.DB, model any) []int64 {
	t.Helper()
	var ids []int64
	require.NoError(t, db.Model(model).Order("id ASC").Pluck("id", &ids).Error)
	return ids
}

func TestPurgeSessionsJob(t *testing.T) {
	sched, db := setup(t)
	longAgo := now.Add(-30 * 24 * time.Hour)
	recently := now.Add(-time.Hour)

	session(t, db, 1, longAgo, nil)
	session(t, db, 2, longAgo, nil)
	session(t, db, 3, now.Add(24*time.Hour), &longAgo)
	session(t, db, 4, now.Add(24*time.Hour), nil)
	session(t, db, 5, recently, nil)
	session(t, db, 6, now.Add(24*time.Hour), &recently)

	run := sched.newJobRun(JobPurgeSessions)
	require.NoError(t, sched.PurgeSessionsJob(context.Background(), run))

	assert.Equal(t, 3, run.processedCount)
	assert.Equal(t, []int64{4, 5, 6}, remainingIDs(t, db, &authdomain.Session{}))
}

func TestPurgeEmptyCartsJob(t *testing.T) {
	sched, db := setup(t)
	stale := now.Add(-60 * 24 * time.Hour)

	cart(t, db, 1, 101, stale, false)
	cart(t, db, 2, 102, stale, true)
	cart(t, db, 3, 103, now.Add(-24*time.Hour), false)

	run := sched.newJobRun(JobPurgeEmptyCarts)
	require.NoError(t, sched.PurgeEmptyCartsJob(context.Background(), run))

	assert.Equal(t, 1, run.processedCount)
	assert.Equal(t, []int64{2, 3}, remainingIDs(t, db, &cartdomain.Cart{}))
}

func TestRunOnceRunsAllJobs(t *testing.T) {
	sched, db := setup(t)
	longAgo := now.Add(-60 * 24 * time.Hour)
	session(t, db, 1, longAgo, nil)
	cart(t, db, 1, 101, longAgo, false)

	require.NoError(t, sched.RunOnce(context.Background()))

	assert.Empty(t, remainingIDs(t, db, &authdomain.Session{}))
	assert.Empty(t, remainingIDs(t, db, &cartdomain.Cart{}))
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 15*time.Minute, cfg.RunInterval)
	assert.Equal(t, 500, cfg.BatchSize)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionRetention)
}
