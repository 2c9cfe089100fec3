package offline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/core"
	"github.com/smsm300/fox-kiro-v5/internal/logger"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"gorm.io/gorm"
)

// Store is the persistence surface the sync manager drains against.
type Store interface {
	// NextBatch returns queued entries in strict enqueue order.
	NextBatch(limit int) ([]models.OutboxEntry, error)
	// Complete marks the mirrored transaction synced and removes the entry,
	// atomically.
	Complete(entry models.OutboxEntry, remoteID string) error
	// Fail records a replay failure; the entry stays queued.
	Fail(entry models.OutboxEntry, cause error) error
}

const drainBatchSize = 50

// Manager replays the outbox FIFO against the upstream. It is the only place
// in the system that retries anything: handlers enqueue once and move on.
type Manager struct {
	mu       sync.Mutex
	upstream Upstream
	store    Store
	monitor  *Monitor

	stateMu   sync.RWMutex
	lastSync  time.Time
	lastError string
}

// NewManager wires the drain to connectivity: every offline->online
// transition triggers a replay pass.
func NewManager(upstream Upstream, store Store, monitor *Monitor) *Manager {
	m := &Manager{upstream: upstream, store: store, monitor: monitor}
	monitor.Subscribe(func(online bool) {
		if online {
			go func() {
				if err := m.Drain(context.Background()); err != nil {
					logger.L.Warn("replay after reconnect stopped", "err", err)
				}
			}()
		}
	})
	return m
}

// Drain replays queued entries in FIFO order until the queue is empty or an
// entry fails. On failure it stops immediately - later entries may depend on
// the failed one - and leaves the remainder queued for the next pass.
// Entries are removed only after the upstream acks, so delivery is
// at-least-once; the per-entry idempotency key makes the repeat safe.
func (m *Manager) Drain(ctx context.Context) error {
	if m.upstream == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	replayed := 0
	for {
		batch, err := m.store.NextBatch(drainBatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}

		for _, entry := range batch {
			remoteID, err := m.upstream.Replay(ctx, entry)
			if err != nil {
				if ferr := m.store.Fail(entry, err); ferr != nil {
					logger.L.Error("cannot record replay failure", "entry", entry.ID, "err", ferr)
				}
				m.setResult(fmt.Sprintf("entry %d (%s): %v", entry.ID, entry.OperationType, err))
				// A business rejection means the link is fine; flipping
				// offline would make the next probe re-trigger the same
				// failing drain forever.
				if !errors.Is(err, ErrUpstreamRejected) {
					m.monitor.SetOnline(false)
				}
				return fmt.Errorf("%w: entry %d (%s): %v",
					core.ErrSyncReplayFailure, entry.ID, entry.OperationType, err)
			}
			if err := m.store.Complete(entry, remoteID); err != nil {
				m.setResult(fmt.Sprintf("entry %d ack bookkeeping: %v", entry.ID, err))
				return err
			}
			replayed++
		}
	}

	if replayed > 0 {
		logger.L.Info("outbox drained", "replayed", replayed)
	}
	m.setResult("")
	return nil
}

// Kick drains synchronously when online; a no-op otherwise. Called by the
// write path after committing, so the online path returns authoritative
// records.
func (m *Manager) Kick(ctx context.Context) {
	if !m.monitor.Online() {
		return
	}
	if err := m.Drain(ctx); err != nil {
		logger.L.Warn("sync kick stopped", "err", err)
	}
}

func (m *Manager) setResult(errMsg string) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.lastSync = time.Now()
	m.lastError = errMsg
}

// Status reports the last drain attempt for the sync badge.
func (m *Manager) Status() (lastSync time.Time, lastError string) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.lastSync, m.lastError
}

// GormStore is the production Store, backed by the outbox table and the
// transactions it mirrors.
type GormStore struct {
	db    *gorm.DB
	queue *Queue
}

func NewGormStore(db *gorm.DB, queue *Queue) *GormStore {
	return &GormStore{db: db, queue: queue}
}

func (s *GormStore) NextBatch(limit int) ([]models.OutboxEntry, error) {
	return s.queue.NextBatch(limit)
}

func (s *GormStore) Complete(entry models.OutboxEntry, remoteID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if entry.TransactionID != nil {
			updates := map[string]any{"sync_state": models.SyncDone}
			if remoteID != "" {
				updates["remote_id"] = remoteID
			}
			if err := tx.Model(&models.Transaction{}).
				Where("id = ?", *entry.TransactionID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		return s.queue.Ack(tx, entry.ID)
	})
}

func (s *GormStore) Fail(entry models.OutboxEntry, cause error) error {
	return s.queue.MarkFailed(entry.ID, cause)
}
