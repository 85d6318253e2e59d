package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/callog-relay/internal/domain"
	"github.com/callog-relay/internal/observability"
)

// MaxSweepBatch caps how many records a single SweepOld run removes.
const MaxSweepBatch = 500

// NotificationStore is the slice of the notification repository the keeper uses.
type NotificationStore interface {
	Get(ctx context.Context, notificationID string) (*domain.CallNotification, error)
	ApplyChange(ctx context.Context, notificationID string, change domain.StatusChange) (bool, error)
	ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	DeleteBatch(ctx context.Context, ids []string) (int, error)
}

// ExpiryScheduler arranges a later SweepExpired for one notification.
type ExpiryScheduler interface {
	Schedule(ctx context.Context, notificationID string) error
}

type KeeperDeps struct {
	Store NotificationStore
	// Scheduler defaults to an in-process timer firing after ExpiryDelay.
	Scheduler   ExpiryScheduler
	ExpiryDelay time.Duration
	Now         func() time.Time
}

// Keeper owns the tail of a notification record's lifecycle: the delayed
// sent -> expired transition and deletion of old records.
type Keeper struct {
	store     NotificationStore
	scheduler ExpiryScheduler
	timers    *TimerScheduler
	now       func() time.Time
}

func NewKeeper(deps KeeperDeps) *Keeper {
	k := &Keeper{store: deps.Store, scheduler: deps.Scheduler, now: deps.Now}
	if k.now == nil {
		k.now = time.Now
	}
	if k.scheduler == nil {
		k.timers = NewTimerScheduler(deps.ExpiryDelay, func(ctx context.Context, id string) error {
			_, err := k.SweepExpired(ctx, id)
			return err
		})
		k.scheduler = k.timers
	}
	return k
}

// ScheduleExpiry arranges SweepExpired for id after the configured delay.
func (k *Keeper) ScheduleExpiry(ctx context.Context, notificationID string) error {
	return k.scheduler.Schedule(ctx, notificationID)
}

// SweepExpired moves the record to expired if it is still sent. Any other
// state, or a missing record, is left alone. It reports whether it wrote.
func (k *Keeper) SweepExpired(ctx context.Context, notificationID string) (bool, error) {
	n, err := k.store.Get(ctx, notificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			observability.Expirations.WithLabelValues("missing").Inc()
			return false, nil
		}
		return false, fmt.Errorf("read notification %s: %w", notificationID, err)
	}
	if n.Status != domain.StatusSent {
		observability.Expirations.WithLabelValues("skipped").Inc()
		return false, nil
	}

	applied, err := k.store.ApplyChange(ctx, notificationID, domain.StatusChange{
		From: domain.StatusSent,
		To:   domain.StatusExpired,
		At:   k.now(),
	})
	if err != nil {
		return false, fmt.Errorf("expire notification %s: %w", notificationID, err)
	}
	if !applied {
		observability.Expirations.WithLabelValues("skipped").Inc()
		return false, nil
	}
	observability.Expirations.WithLabelValues("expired").Inc()
	slog.Info("notification expired", "notification_id", notificationID)
	return true, nil
}

// SweepOld deletes up to limit records created more than maxAge ago and
// returns how many were removed. The cutoff is fixed when the run starts.
func (k *Keeper) SweepOld(ctx context.Context, maxAge time.Duration, limit int) (int, error) {
	if limit <= 0 || limit > MaxSweepBatch {
		limit = MaxSweepBatch
	}
	cutoff := k.now().Add(-maxAge)

	ids, err := k.store.ListCreatedBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("list old notifications: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	deleted, err := k.store.DeleteBatch(ctx, ids)
	observability.SweptRecords.Add(float64(deleted))
	if err != nil {
		return deleted, fmt.Errorf("delete old notifications: %w", err)
	}
	slog.Info("old notifications swept", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

// RunCleanup calls SweepOld every interval until ctx is done. Failed runs are
// logged and retried on the next tick.
func (k *Keeper) RunCleanup(ctx context.Context, interval, maxAge time.Duration, limit int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := k.SweepOld(ctx, maxAge, limit); err != nil {
				slog.Error("cleanup run failed", "err", err)
			}
		case <-ctx.Done():
			slog.Info("cleanup loop stopped")
			return
		}
	}
}

// Close cancels pending in-process expiry timers.
func (k *Keeper) Close() {
	if k.timers != nil {
		k.timers.Stop()
	}
}
