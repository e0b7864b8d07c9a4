package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketview/internal/domain"
)

const (
	snapshotLockKey = "archive:snapshot"
	// Snapshots above this size are uploaded in parts.
	multipartThreshold = 8 * 1024 * 1024
	snapshotPartSize   = 8 * 1024 * 1024
)

// EventSnapshot is the archived state of one event.
type EventSnapshot struct {
	AllMarketOrders   map[string][]domain.BuyOrder  `json:"allMarketOrders"`
	MarketPercentages map[string]domain.Percentages `json:"marketPercentages"`
	// ImpliedPercentages is recomputed locally from the order book for
	// comparison with the backend-reported values.
	ImpliedPercentages map[string]domain.Percentages `json:"impliedPercentages"`
	Chart              []domain.ChartPoint           `json:"chart"`
}

// Snapshot is one archived copy of the public read models.
type Snapshot struct {
	TakenAt time.Time                `json:"takenAt"`
	Home    domain.HomeView          `json:"home"`
	Events  map[string]EventSnapshot `json:"events"`
}

// SnapshotArchiver periodically writes the public views to object storage.
// Only one instance writes at a time when a lock manager is attached.
type SnapshotArchiver struct {
	home    *HomeViewService
	events  *EventViewService
	blob    domain.BlobWriter
	locks   domain.LockManager
	alerter Alerter
	prefix  string
	fanout  int
	now     func() time.Time
	logger  *slog.Logger
}

// NewSnapshotArchiver creates a SnapshotArchiver writing under prefix.
func NewSnapshotArchiver(home *HomeViewService, events *EventViewService, blob domain.BlobWriter, prefix string, logger *slog.Logger) *SnapshotArchiver {
	return &SnapshotArchiver{
		home:   home,
		events: events,
		blob:   blob,
		prefix: prefix,
		fanout: 4,
		now:    time.Now,
		logger: logger.With(slog.String("component", "snapshot_archiver")),
	}
}

// WithLockManager guards each run with a distributed lock.
func (a *SnapshotArchiver) WithLockManager(locks domain.LockManager) *SnapshotArchiver {
	a.locks = locks
	return a
}

// WithAlerter notifies operators when a run fails.
func (a *SnapshotArchiver) WithAlerter(alerter Alerter) *SnapshotArchiver {
	a.alerter = alerter
	return a
}

// Key returns the object key of a snapshot taken at t.
func (a *SnapshotArchiver) Key(t time.Time) string {
	t = t.UTC()
	return path.Join(a.prefix, t.Format("2006/01/02"), t.Format("150405")+".json")
}

// Take assembles a snapshot without storing it.
func (a *SnapshotArchiver) Take(ctx context.Context) Snapshot {
	snap := Snapshot{
		TakenAt: a.now().UTC(),
		Home:    a.home.Assemble(ctx),
		Events:  make(map[string]EventSnapshot),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(a.fanout)
	for _, ev := range snap.Home.Events {
		g.Go(func() error {
			view, err := a.events.Assemble(ctx, ev.ID, "")
			if err != nil {
				a.logger.WarnContext(ctx, "event skipped",
					slog.String("event_id", ev.ID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			implied := make(map[string]domain.Percentages, len(view.AllMarketOrders))
			for marketID, orders := range view.AllMarketOrders {
				implied[marketID] = domain.ImpliedPercentages(orders)
			}
			mu.Lock()
			snap.Events[ev.ID] = EventSnapshot{
				AllMarketOrders:    view.AllMarketOrders,
				MarketPercentages:  view.MarketPercentages,
				ImpliedPercentages: implied,
				Chart:              view.Chart,
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return snap
}

// RunOnce takes and stores one snapshot and returns its key. It returns
// domain.ErrLockHeld when another instance is archiving.
func (a *SnapshotArchiver) RunOnce(ctx context.Context, lockTTL time.Duration) (string, error) {
	if a.locks != nil {
		unlock, err := a.locks.Acquire(ctx, snapshotLockKey, lockTTL)
		if err != nil {
			return "", fmt.Errorf("snapshot_archiver: acquire lock: %w", err)
		}
		defer unlock()
	}

	snap := a.Take(ctx)
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("snapshot_archiver: marshal snapshot: %w", err)
	}

	key := a.Key(snap.TakenAt)
	if len(data) > multipartThreshold {
		err = a.blob.PutMultipart(ctx, key, bytes.NewReader(data), snapshotPartSize)
	} else {
		err = a.blob.Put(ctx, key, bytes.NewReader(data), "application/json")
	}
	if err != nil {
		return "", fmt.Errorf("snapshot_archiver: store %s: %w", key, err)
	}

	a.logger.InfoContext(ctx, "snapshot stored",
		slog.String("key", key),
		slog.Int("events", len(snap.Events)),
		slog.Int("bytes", len(data)),
	)
	return key, nil
}

// Run archives every interval until ctx is cancelled. lockTTL bounds how
// long a crashed writer can block the others.
func (a *SnapshotArchiver) Run(ctx context.Context, interval, lockTTL time.Duration) error {
	a.logger.InfoContext(ctx, "snapshot archiver started", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := a.RunOnce(ctx, lockTTL); err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				a.logger.DebugContext(ctx, "snapshot skipped, lock held elsewhere")
			} else {
				a.logger.ErrorContext(ctx, "snapshot failed", slog.String("error", err.Error()))
				if a.alerter != nil {
					_ = a.alerter.Notify(ctx, alertArchiveFailed, "Snapshot archive failed", err.Error())
				}
			}
		}

		select {
		case <-ctx.Done():
			a.logger.InfoContext(ctx, "snapshot archiver stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
