package offline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/core"
	"github.com/smsm300/fox-kiro-v5/internal/logger"
	"github.com/smsm300/fox-kiro-v5/internal/models"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

// fakeUpstream records replay order and fails on demand: failRef simulates a
// transport failure, rejectRef a business rejection over a healthy link.
type fakeUpstream struct {
	replayed  []string // client refs in replay order
	failRef   string
	rejectRef string
	snapshots map[string][]byte
}

func (f *fakeUpstream) Ping(ctx context.Context) error { return nil }

func (f *fakeUpstream) Replay(ctx context.Context, entry models.OutboxEntry) (string, error) {
	if entry.ClientRef == f.failRef {
		return "", fmt.Errorf("connection reset replaying %s", entry.ClientRef)
	}
	if entry.ClientRef == f.rejectRef {
		return "", fmt.Errorf("%w: %s", ErrUpstreamRejected, entry.ClientRef)
	}
	f.replayed = append(f.replayed, entry.ClientRef)
	return "remote-" + entry.ClientRef, nil
}

func (f *fakeUpstream) FetchSnapshot(ctx context.Context, resource string) ([]byte, error) {
	data, ok := f.snapshots[resource]
	if !ok {
		return nil, fmt.Errorf("no snapshot for %s", resource)
	}
	return data, nil
}

// memStore is an in-memory Store.
type memStore struct {
	entries   []models.OutboxEntry
	completed map[string]string // client ref -> remote id
	failures  map[string]int
}

func newMemStore(refs ...string) *memStore {
	s := &memStore{
		completed: make(map[string]string),
		failures:  make(map[string]int),
	}
	for i, ref := range refs {
		s.entries = append(s.entries, models.OutboxEntry{
			ID:            uint(i + 1),
			OperationType: models.OpSale,
			Payload:       "{}",
			ClientRef:     ref,
		})
	}
	return s
}

func (s *memStore) NextBatch(limit int) ([]models.OutboxEntry, error) {
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	batch := make([]models.OutboxEntry, limit)
	copy(batch, s.entries[:limit])
	return batch, nil
}

func (s *memStore) Complete(entry models.OutboxEntry, remoteID string) error {
	s.completed[entry.ClientRef] = remoteID
	for i, e := range s.entries {
		if e.ID == entry.ID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memStore) Fail(entry models.OutboxEntry, cause error) error {
	s.failures[entry.ClientRef]++
	return nil
}

func onlineMonitor(up Upstream) *Monitor {
	m := NewMonitor(up, time.Minute)
	m.SetOnline(true)
	return m
}

func TestDrainReplaysInOrder(t *testing.T) {
	up := &fakeUpstream{}
	store := newMemStore("a", "b", "c")
	mgr := NewManager(up, store, NewMonitor(up, time.Minute))

	if err := mgr.Drain(context.Background()); err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(up.replayed) != len(want) {
		t.Fatalf("replayed %d entries, want %d", len(up.replayed), len(want))
	}
	for i, ref := range want {
		if up.replayed[i] != ref {
			t.Errorf("replay[%d] = %s, want %s", i, up.replayed[i], ref)
		}
	}
	if len(store.entries) != 0 {
		t.Errorf("%d entries left queued after drain", len(store.entries))
	}
	if store.completed["b"] != "remote-b" {
		t.Errorf("completed[b] = %q, want remote-b", store.completed["b"])
	}
}

func TestDrainStopsOnFirstFailure(t *testing.T) {
	up := &fakeUpstream{failRef: "b"}
	store := newMemStore("a", "b", "c")
	monitor := onlineMonitor(up)
	mgr := NewManager(up, store, monitor)

	err := mgr.Drain(context.Background())
	if !errors.Is(err, core.ErrSyncReplayFailure) {
		t.Fatalf("drain error = %v, want ErrSyncReplayFailure", err)
	}

	if _, ok := store.completed["a"]; !ok {
		t.Error("entry before the failure should be completed")
	}
	if store.failures["b"] != 1 {
		t.Errorf("failures[b] = %d, want 1", store.failures["b"])
	}
	for _, ref := range up.replayed {
		if ref == "c" {
			t.Error("entry after the failure must not be attempted")
		}
	}
	if len(store.entries) != 2 {
		t.Errorf("%d entries left queued, want 2 (failed entry and its successor)", len(store.entries))
	}
	if monitor.Online() {
		t.Error("a replay failure should flip the monitor offline")
	}

	_, lastError := mgr.Status()
	if lastError == "" {
		t.Error("Status should report the failed entry")
	}
}

func TestDrainBusinessRejectionStaysOnline(t *testing.T) {
	up := &fakeUpstream{rejectRef: "b"}
	store := newMemStore("a", "b", "c")
	monitor := onlineMonitor(up)
	mgr := NewManager(up, store, monitor)

	err := mgr.Drain(context.Background())
	if !errors.Is(err, core.ErrSyncReplayFailure) {
		t.Fatalf("drain error = %v, want ErrSyncReplayFailure", err)
	}

	if !monitor.Online() {
		t.Error("an upstream rejection must not flip the monitor offline")
	}
	if store.failures["b"] != 1 {
		t.Errorf("failures[b] = %d, want 1", store.failures["b"])
	}
	for _, ref := range up.replayed {
		if ref == "c" {
			t.Error("entry after the rejection must not be attempted")
		}
	}
	if len(store.entries) != 2 {
		t.Errorf("%d entries left queued, want 2 (rejected entry and its successor)", len(store.entries))
	}
}

func TestDrainEmptyQueue(t *testing.T) {
	up := &fakeUpstream{}
	mgr := NewManager(up, newMemStore(), NewMonitor(up, time.Minute))

	if err := mgr.Drain(context.Background()); err != nil {
		t.Fatalf("drain on empty queue failed: %v", err)
	}
	if len(up.replayed) != 0 {
		t.Error("nothing should be replayed from an empty queue")
	}
}

func TestKickWhileOfflineIsNoop(t *testing.T) {
	up := &fakeUpstream{}
	store := newMemStore("a")
	mgr := NewManager(up, store, NewMonitor(up, time.Minute))

	mgr.Kick(context.Background())
	if len(up.replayed) != 0 {
		t.Error("kick while offline must not replay")
	}
	if len(store.entries) != 1 {
		t.Error("kick while offline must leave the queue untouched")
	}
}

func TestStandaloneManagerDrainsNothing(t *testing.T) {
	store := newMemStore("a")
	mgr := NewManager(nil, store, NewMonitor(nil, time.Minute))

	if err := mgr.Drain(context.Background()); err != nil {
		t.Fatalf("standalone drain failed: %v", err)
	}
	if len(store.entries) != 1 {
		t.Error("standalone drain must not consume entries")
	}
}
