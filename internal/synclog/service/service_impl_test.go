package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autoparts/internal/authctx"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/internal/synclog/domain"
	"github.com/smallbiznis/autoparts/internal/synclog/repository"
	"github.com/smallbiznis/autoparts/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type capturePublisher struct {
	mu      sync.Mutex
	entries []domain.Entry
}

func (p *capturePublisher) Publish(entries ...domain.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entries...)
}

type fixture struct {
	db    *gorm.DB
	clock *clock.FakeClock
	svc   *Service
	pub   *capturePublisher
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t, &domain.Entry{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.UnixMilli(1_700_000_000_000))
	pub := &capturePublisher{}
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fc,
		Repo:      repository.Provide(),
		Publisher: pub,
	}).(*Service)
	return fixture{db: db, clock: fc, svc: svc, pub: pub}
}

func collect(t *testing.T, svc *Service, table string, watermark int64) []domain.Entry {
	t.Helper()
	var out []domain.Entry
	for e, err := range svc.EntriesSince(context.Background(), table, watermark) {
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func TestRecord_CommitsWithTransaction(t *testing.T) {
	f := setup(t)
	ctx := authctx.WithActor(context.Background(), authctx.Actor{UserID: 42})

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.RecordOwned(ctx, tx, domain.TableCartItems, 100, 42, domain.ActionCreated)
		return err
	})
	require.NoError(t, err)

	entries := collect(t, f.svc, domain.TableCartItems, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(100), entries[0].RecordID)
	assert.Equal(t, domain.ActionCreated, entries[0].Action)
	assert.Equal(t, int64(1_700_000_000_000), entries[0].Timestamp)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, int64(42), *entries[0].UserID)
	require.NotNil(t, entries[0].OwnerUserID)
	assert.Equal(t, int64(42), *entries[0].OwnerUserID)
}

func TestRecord_RollbackLeavesNoEntry(t *testing.T) {
	f := setup(t)

	boom := errors.New("boom")
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if _, err := f.svc.RecordOwned(context.Background(), tx, domain.TableCartItems, 100, 1, domain.ActionCreated); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Empty(t, collect(t, f.svc, domain.TableCartItems, 0))
}

func TestRecord_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Record(ctx, f.db, "", 1, domain.ActionCreated)
	assert.ErrorIs(t, err, domain.ErrInvalidTable)

	_, err = f.svc.Record(ctx, f.db, domain.TableProducts, 0, domain.ActionCreated)
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	_, err = f.svc.Record(ctx, f.db, domain.TableProducts, 1, domain.Action("touched"))
	assert.ErrorIs(t, err, domain.ErrInvalidAction)

	for _, table := range []string{domain.TableCartItems, domain.TableOrders, domain.TableFavorites} {
		_, err = f.svc.Record(ctx, f.db, table, 1, domain.ActionCreated)
		assert.ErrorIs(t, err, domain.ErrMissingOwner, table)
	}
}

func TestRecord_TimestampNeverMovesBackwards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Record(ctx, f.db, domain.TableProducts, 1, domain.ActionCreated)
	require.NoError(t, err)

	f.clock.Set(time.UnixMilli(1_600_000_000_000))
	_, err = f.svc.Record(ctx, f.db, domain.TableProducts, 2, domain.ActionCreated)
	require.NoError(t, err)

	entries := collect(t, f.svc, domain.TableProducts, 0)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].RecordID)
	assert.Equal(t, entries[0].Timestamp, entries[1].Timestamp)
}

func TestRecord_ResumesFromPersistedTimestamp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.RecordOwned(ctx, f.db, domain.TableOrders, 1, 5, domain.ActionCreated)
	require.NoError(t, err)

	// a fresh service must read the high watermark back from the table
	restarted := New(Params{
		DB:    f.db,
		Log:   zap.NewNop(),
		GenID: f.svc.genID,
		Clock: clock.NewFakeClock(time.UnixMilli(1_000)),
		Repo:  repository.Provide(),
	}).(*Service)
	entry, err := restarted.RecordOwned(ctx, f.db, domain.TableOrders, 2, 5, domain.ActionUpdated)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000), entry.Timestamp)
}

func TestEntriesSince_OrderedAndRestartable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		_, err := f.svc.Record(ctx, f.db, domain.TableProducts, i, domain.ActionUpdated)
		require.NoError(t, err)
		if i%2 == 0 {
			f.clock.Advance(time.Millisecond)
		}
	}
	_, err := f.svc.Record(ctx, f.db, domain.TableComments, 9, domain.ActionCreated)
	require.NoError(t, err)

	watermark := int64(1_700_000_000_001)
	first := collect(t, f.svc, domain.TableProducts, watermark)
	second := collect(t, f.svc, domain.TableProducts, watermark)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	for i, e := range first {
		assert.GreaterOrEqual(t, e.Timestamp, watermark)
		assert.Equal(t, domain.TableProducts, e.Table)
		if i > 0 {
			prev := first[i-1]
			assert.True(t, prev.Timestamp < e.Timestamp || (prev.Timestamp == e.Timestamp && prev.ID < e.ID))
		}
	}
	assert.Equal(t, []int64{3, 4, 5}, []int64{first[0].RecordID, first[1].RecordID, first[2].RecordID})
}

func TestEntriesSince_PagesBeyondOneBatch(t *testing.T) {
	f := setup(t)

	total := iteratorPageSize + 7
	batch := make([]domain.Entry, 0, total)
	for i := 1; i <= total; i++ {
		batch = append(batch, domain.Entry{
			ID:        f.svc.genID.Generate().Int64(),
			Table:     domain.TableProducts,
			RecordID:  int64(i),
			Action:    domain.ActionCreated,
			Timestamp: 10,
		})
	}
	require.NoError(t, f.db.CreateInBatches(batch, 100).Error)

	got := collect(t, f.svc, domain.TableProducts, 0)
	require.Len(t, got, total)
	assert.Equal(t, int64(total), got[total-1].RecordID)
}

func TestEntriesSince_StopsEarly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		_, err := f.svc.Record(ctx, f.db, domain.TableProducts, i, domain.ActionCreated)
		require.NoError(t, err)
	}

	n := 0
	for range f.svc.EntriesSince(ctx, domain.TableProducts, 0) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestChanges(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		_, err := f.svc.Record(ctx, f.db, domain.TableCategories, i, domain.ActionCreated)
		require.NoError(t, err)
		f.clock.Advance(time.Millisecond)
	}

	resp, err := f.svc.Changes(ctx, domain.ChangesRequest{Table: domain.TableCategories, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Changes, 2)
	assert.True(t, resp.HasMore)
	assert.Equal(t, int64(1_700_000_000_001), resp.Timestamp)

	_, err = f.svc.Changes(ctx, domain.ChangesRequest{Table: "users"})
	assert.ErrorIs(t, err, domain.ErrInvalidTable)

	_, err = f.svc.Changes(ctx, domain.ChangesRequest{Table: domain.TableCategories, Since: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidWatermark)
}

func TestPull_LatestActionWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	record := func(table string, id int64, action domain.Action) {
		_, err := f.svc.Record(ctx, f.db, table, id, action)
		require.NoError(t, err)
		f.clock.Advance(time.Millisecond)
	}
	record(domain.TableProducts, 1, domain.ActionCreated)
	record(domain.TableProducts, 2, domain.ActionCreated)
	record(domain.TableProducts, 1, domain.ActionUpdated)
	record(domain.TableProducts, 2, domain.ActionDeleted)
	record(domain.TableComments, 3, domain.ActionCreated)
	f.clock.Advance(settleWindow)

	resp, err := f.svc.Pull(ctx, 0)
	require.NoError(t, err)

	products := resp.Changes[domain.TableProducts]
	assert.Empty(t, products.Created)
	assert.Equal(t, []string{snowflake.ID(1).String()}, products.Updated)
	assert.Equal(t, []string{snowflake.ID(2).String()}, products.Deleted)
	assert.Equal(t, []string{snowflake.ID(3).String()}, resp.Changes[domain.TableComments].Created)
	assert.Equal(t, int64(1_700_000_000_004), resp.Timestamp)
	assert.Len(t, resp.Changes, len(domain.TrackedTables))
}

func TestNotify_ForwardsToPublisher(t *testing.T) {
	f := setup(t)
	f.svc.Notify(domain.Entry{ID: 1, Table: domain.TableOrders, Action: domain.ActionCreated})
	f.svc.Notify()

	require.Len(t, f.pub.entries, 1)
	assert.Equal(t, domain.TableOrders, f.pub.entries[0].Table)
}

func TestChanges_PrivateRowsOnlyReachOwner(t *testing.T) {
	f := setup(t)
	alice := authctx.WithActor(context.Background(), authctx.Actor{UserID: 1})
	bob := authctx.WithActor(context.Background(), authctx.Actor{UserID: 2})
	admin := authctx.WithActor(context.Background(), authctx.Actor{UserID: 9, IsAdmin: true})

	_, err := f.svc.RecordOwned(alice, f.db, domain.TableOrders, 777, 1, domain.ActionCreated)
	require.NoError(t, err)
	_, err = f.svc.RecordOwned(admin, f.db, domain.TableOrders, 777, 1, domain.ActionUpdated)
	require.NoError(t, err)

	resp, err := f.svc.Changes(bob, domain.ChangesRequest{Table: domain.TableOrders})
	require.NoError(t, err)
	assert.Empty(t, resp.Changes)

	resp, err = f.svc.Changes(context.Background(), domain.ChangesRequest{Table: domain.TableOrders})
	require.NoError(t, err)
	assert.Empty(t, resp.Changes)

	resp, err = f.svc.Changes(alice, domain.ChangesRequest{Table: domain.TableOrders})
	require.NoError(t, err)
	require.Len(t, resp.Changes, 2)
	assert.Equal(t, snowflake.ID(777).String(), resp.Changes[0].RecordID)
	assert.Equal(t, "1", resp.Changes[0].UserID)
	// the admin who changed the order is not disclosed
	assert.Empty(t, resp.Changes[1].UserID)
}

func TestPull_PrivateRowsOnlyReachOwner(t *testing.T) {
	f := setup(t)
	alice := authctx.WithActor(context.Background(), authctx.Actor{UserID: 1})
	bob := authctx.WithActor(context.Background(), authctx.Actor{UserID: 2})

	for _, table := range []string{domain.TableOrders, domain.TableCartItems, domain.TableFavorites} {
		_, err := f.svc.RecordOwned(alice, f.db, table, 777, 1, domain.ActionCreated)
		require.NoError(t, err)
	}
	_, err := f.svc.Record(alice, f.db, domain.TableProducts, 5, domain.ActionUpdated)
	require.NoError(t, err)

	resp, err := f.svc.Pull(bob, 0)
	require.NoError(t, err)
	for _, table := range []string{domain.TableOrders, domain.TableCartItems, domain.TableFavorites} {
		assert.Empty(t, resp.Changes[table].Created, table)
	}
	assert.Equal(t, []string{snowflake.ID(5).String()}, resp.Changes[domain.TableProducts].Updated)

	resp, err = f.svc.Pull(alice, 0)
	require.NoError(t, err)
	for _, table := range []string{domain.TableOrders, domain.TableCartItems, domain.TableFavorites} {
		assert.Equal(t, []string{snowflake.ID(777).String()}, resp.Changes[table].Created, table)
	}
}

func TestChanges_HoldsWatermarkBackForLateCommits(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	start := f.clock.Now().UnixMilli()

	_, err := f.svc.Record(ctx, f.db, domain.TableProducts, 1, domain.ActionCreated)
	require.NoError(t, err)

	resp, err := f.svc.Changes(ctx, domain.ChangesRequest{Table: domain.TableProducts, Since: 0})
	require.NoError(t, err)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, start-settleWindow.Milliseconds(), resp.Timestamp)

	// a row stamped before the first read but committed after it is still returned
	late := domain.Entry{
		ID:        f.svc.genID.Generate().Int64(),
		Table:     domain.TableProducts,
		RecordID:  2,
		Action:    domain.ActionCreated,
		Timestamp: start,
	}
	require.NoError(t, f.db.Create(&late).Error)

	resp, err = f.svc.Changes(ctx, domain.ChangesRequest{Table: domain.TableProducts, Since: resp.Timestamp})
	require.NoError(t, err)
	require.Len(t, resp.Changes, 2)
	assert.Equal(t, snowflake.ID(2).String(), resp.Changes[1].RecordID)

	f.clock.Advance(settleWindow)
	resp, err = f.svc.Changes(ctx, domain.ChangesRequest{Table: domain.TableProducts, Since: resp.Timestamp})
	require.NoError(t, err)
	assert.Equal(t, start, resp.Timestamp)
}
