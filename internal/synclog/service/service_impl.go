package service

import (
	"context"
	"iter"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autoparts/internal/authctx"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/internal/observability/metrics"
	"github.com/smallbiznis/autoparts/internal/synclog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	iteratorPageSize   = 500
	defaultChangeLimit = 500
	maxChangeLimit     = 1000

	// settleWindow holds the returned watermark back so rows stamped earlier
	// but committed later are still at or after it.
	settleWindow = 2 * time.Second
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Metrics   *metrics.Metrics `optional:"true"`
	Publisher domain.Publisher `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	metrics   *metrics.Metrics
	publisher domain.Publisher

	// mu orders id generation with timestamp assignment so that id order and
	// timestamp order agree within a table.
	mu   sync.Mutex
	last map[string]int64
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("synclog.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		metrics:   p.Metrics,
		publisher: p.Publisher,
		last:      make(map[string]int64),
	}
}

// Record writes one entry with tx. The entry only exists if tx commits.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, table string, recordID int64, action domain.Action) (*domain.Entry, error) {
	table = strings.TrimSpace(table)
	if domain.IsPrivate(table) {
		return nil, domain.ErrMissingOwner
	}
	return s.record(ctx, tx, table, recordID, nil, action)
}

// RecordOwned writes one entry for a row owned by ownerID. An ownerID of zero
// leaves the entry readable by nobody, e.g. an order whose user is gone.
func (s *Service) RecordOwned(ctx context.Context, tx *gorm.DB, table string, recordID, ownerID int64, action domain.Action) (*domain.Entry, error) {
	var owner *int64
	if ownerID != 0 {
		owner = &ownerID
	}
	return s.record(ctx, tx, strings.TrimSpace(table), recordID, owner, action)
}

func (s *Service) record(ctx context.Context, tx *gorm.DB, table string, recordID int64, owner *int64, action domain.Action) (*domain.Entry, error) {
	if table == "" {
		return nil, domain.ErrInvalidTable
	}
	if recordID == 0 {
		return nil, domain.ErrInvalidRecord
	}
	if !action.Valid() {
		return nil, domain.ErrInvalidAction
	}

	entry := domain.Entry{
		Table:       table,
		RecordID:    recordID,
		Action:      action,
		OwnerUserID: owner,
	}
	if actor, ok := authctx.ActorFromContext(ctx); ok {
		userID := actor.UserID
		entry.UserID = &userID
	}

	if err := s.stamp(ctx, tx, &entry); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, tx, &entry); err != nil {
		s.log.Warn("failed to write sync log",
			zap.String("table", table),
			zap.Int64("record_id", recordID),
			zap.Error(err),
		)
		return nil, err
	}
	return &entry, nil
}

// stamp assigns id and timestamp. The timestamp is clamped to the last one
// issued for the table so a clock step backwards never reorders a table.
func (s *Service) stamp(ctx context.Context, tx *gorm.DB, entry *domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.last[entry.Table]
	if !ok {
		persisted, err := s.repo.LastTimestamp(ctx, tx, entry.Table)
		if err != nil {
			return err
		}
		last = persisted
	}

	ts := s.clock.Now().UnixMilli()
	if ts < last {
		ts = last
	}
	entry.ID = s.genID.Generate().Int64()
	entry.Timestamp = ts
	s.last[entry.Table] = ts
	return nil
}

func (s *Service) Notify(entries ...domain.Entry) {
	for _, e := range entries {
		s.metrics.IncSyncEntry(e.Table, string(e.Action))
	}
	if s.publisher != nil && len(entries) > 0 {
		s.publisher.Publish(entries...)
	}
}

// EntriesSince yields entries of table with timestamp >= watermark ordered by
// (timestamp, id). Each range over the sequence starts a fresh read.
func (s *Service) EntriesSince(ctx context.Context, table string, watermark int64) iter.Seq2[domain.Entry, error] {
	return s.entries(ctx, domain.SinceQuery{Table: table, Watermark: watermark})
}

// VisibleSince yields the entries userID may read. Private tables are limited
// to rows the user owns; anonymous readers get none of them.
func (s *Service) VisibleSince(ctx context.Context, table string, watermark, userID int64) iter.Seq2[domain.Entry, error] {
	if !domain.IsPrivate(table) {
		return s.EntriesSince(ctx, table, watermark)
	}
	if userID == 0 {
		return func(func(domain.Entry, error) bool) {}
	}
	return s.entries(ctx, domain.SinceQuery{Table: table, Watermark: watermark, Owner: &userID})
}

func (s *Service) entries(ctx context.Context, q domain.SinceQuery) iter.Seq2[domain.Entry, error] {
	q.Limit = iteratorPageSize
	return func(yield func(domain.Entry, error) bool) {
		q := q
		for {
			page, err := s.repo.ListSince(ctx, s.db, q)
			if err != nil {
				yield(domain.Entry{}, err)
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
			}
			if len(page) < iteratorPageSize {
				return
			}
			tail := page[len(page)-1]
			q.After = &domain.Position{Timestamp: tail.Timestamp, ID: tail.ID}
		}
	}
}

func (s *Service) Changes(ctx context.Context, req domain.ChangesRequest) (*domain.ChangesResponse, error) {
	table := strings.TrimSpace(req.Table)
	if !domain.IsTracked(table) {
		return nil, domain.ErrInvalidTable
	}
	if req.Since < 0 {
		return nil, domain.ErrInvalidWatermark
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultChangeLimit
	}
	if limit > maxChangeLimit {
		limit = maxChangeLimit
	}

	viewer := viewerID(ctx)
	resp := &domain.ChangesResponse{
		Table:     table,
		Changes:   []domain.EntryResponse{},
		Timestamp: req.Since,
	}
	for e, err := range s.VisibleSince(ctx, table, req.Since, viewer) {
		if err != nil {
			return nil, err
		}
		if len(resp.Changes) == limit {
			resp.HasMore = true
			break
		}
		resp.Changes = append(resp.Changes, toResponse(e, viewer))
		resp.Timestamp = max(resp.Timestamp, e.Timestamp)
	}
	if !resp.HasMore {
		resp.Timestamp = s.settled(req.Since, resp.Timestamp)
	}
	return resp, nil
}

// settled caps a watermark at now minus settleWindow, never below since. A
// full page keeps its high mark so the client makes progress.
func (s *Service) settled(since, seen int64) int64 {
	limit := s.clock.Now().Add(-settleWindow).UnixMilli()
	return max(since, min(seen, limit))
}

// Pull groups every tracked table's changes since the watermark by record,
// keeping only the latest action per record.
func (s *Service) Pull(ctx context.Context, since int64) (*domain.PullResponse, error) {
	if since < 0 {
		return nil, domain.ErrInvalidWatermark
	}

	viewer := viewerID(ctx)
	resp := &domain.PullResponse{
		Changes:   make(map[string]domain.TableChanges, len(domain.TrackedTables)),
		Timestamp: since,
	}
	for _, table := range domain.TrackedTables {
		latest := make(map[int64]domain.Action)
		var order []int64
		for e, err := range s.VisibleSince(ctx, table, since, viewer) {
			if err != nil {
				return nil, err
			}
			if _, seen := latest[e.RecordID]; !seen {
				order = append(order, e.RecordID)
			}
			latest[e.RecordID] = e.Action
			resp.Timestamp = max(resp.Timestamp, e.Timestamp)
		}

		changes := domain.TableChanges{
			Created: []string{},
			Updated: []string{},
			Deleted: []string{},
		}
		for _, id := range order {
			key := snowflake.ID(id).String()
			switch latest[id] {
			case domain.ActionCreated:
				changes.Created = append(changes.Created, key)
			case domain.ActionUpdated:
				changes.Updated = append(changes.Updated, key)
			case domain.ActionDeleted:
				changes.Deleted = append(changes.Deleted, key)
			}
		}
		resp.Changes[table] = changes
	}
	resp.Timestamp = s.settled(since, resp.Timestamp)
	return resp, nil
}

func viewerID(ctx context.Context) int64 {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return 0
	}
	return actor.UserID
}

// toResponse only names the actor on the viewer's own changes.
func toResponse(e domain.Entry, viewer int64) domain.EntryResponse {
	resp := domain.EntryResponse{
		ID:        snowflake.ID(e.ID).String(),
		TableName: e.Table,
		RecordID:  snowflake.ID(e.RecordID).String(),
		Action:    e.Action,
		Timestamp: e.Timestamp,
	}
	if e.UserID != nil && *e.UserID == viewer {
		resp.UserID = strconv.FormatInt(*e.UserID, 10)
	}
	return resp
}

var _ domain.Service = (*Service)(nil)
