package offline

import (
	"testing"
	"time"
)

func TestMonitorNotifiesOnChange(t *testing.T) {
	m := NewMonitor(&fakeUpstream{}, time.Minute)

	var states []bool
	m.Subscribe(func(online bool) {
		states = append(states, online)
	})

	m.SetOnline(true)
	m.SetOnline(true) // no change, no notification
	m.SetOnline(false)

	if len(states) != 2 || states[0] != true || states[1] != false {
		t.Errorf("notifications = %v, want [true false]", states)
	}
}

func TestMonitorUnsubscribe(t *testing.T) {
	m := NewMonitor(&fakeUpstream{}, time.Minute)

	calls := 0
	id := m.Subscribe(func(bool) { calls++ })
	m.SetOnline(true)
	m.Unsubscribe(id)
	m.SetOnline(false)

	if calls != 1 {
		t.Errorf("calls = %d, want 1 (none after unsubscribe)", calls)
	}
}

func TestMonitorStandalone(t *testing.T) {
	m := NewMonitor(nil, time.Minute)
	if !m.Standalone() {
		t.Error("nil upstream should mean standalone")
	}
	if m.Online() {
		t.Error("standalone stores never report online")
	}

	withUpstream := NewMonitor(&fakeUpstream{}, time.Minute)
	if withUpstream.Standalone() {
		t.Error("a configured upstream should not be standalone")
	}
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	c := NewSnapshotCache()

	if _, ok := c.Load(SnapshotProducts); ok {
		t.Error("empty cache should miss")
	}

	c.Store(SnapshotProducts, []byte(`[{"id":1}]`))
	data, ok := c.Load(SnapshotProducts)
	if !ok || string(data) != `[{"id":1}]` {
		t.Errorf("Load = %q, %v", data, ok)
	}
}
