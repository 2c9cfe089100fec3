package offline

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Snapshot resources mirrored from the upstream for offline reads.
const (
	SnapshotProducts  = "products"
	SnapshotCustomers = "customers"
	SnapshotSuppliers = "suppliers"
)

// SnapshotCache holds the last known upstream copy of each reference list.
// Offline reads are served from here and are eventually consistent by nature.
type SnapshotCache struct {
	c *gocache.Cache
}

func NewSnapshotCache() *SnapshotCache {
	// Snapshots never expire; a stale copy beats no copy while offline.
	return &SnapshotCache{c: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (s *SnapshotCache) Store(resource string, data []byte) {
	s.c.Set(resource, data, gocache.NoExpiration)
}

func (s *SnapshotCache) Load(resource string) ([]byte, bool) {
	v, ok := s.c.Get(resource)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}
