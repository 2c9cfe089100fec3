package offline

import (
	"context"
	"errors"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/core"
	"github.com/smsm300/fox-kiro-v5/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// Guard rejects destructive/administrative operations while offline. They are
// never queued: either they need server-side authority or the offline data
// model cannot represent the result. Standalone stores (no upstream) are
// exempt - the local database is the only authority there.
func Guard(m *Monitor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.Standalone() || m.Online() {
			return c.Next()
		}
		return core.ErrOfflineUnavailable
	}
}

// -------------------------------------------------
// GET /api/sync/status
// -------------------------------------------------
func StatusHandler(m *Monitor, q *Queue, mgr *Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pending, err := q.PendingCount()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot count pending writes")
		}

		lastSync, lastError := mgr.Status()
		resp := fiber.Map{
			"online":        m.Online(),
			"standalone":    m.Standalone(),
			"pending_count": pending,
			"last_error":    lastError,
		}
		if !lastSync.IsZero() {
			resp["last_sync"] = lastSync.Format(time.RFC3339)
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// POST /api/sync/run
// -------------------------------------------------
func RunHandler(m *Monitor, mgr *Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.Standalone() {
			return fiber.NewError(fiber.StatusBadRequest, "no upstream configured")
		}
		if !m.Online() {
			return core.ErrOfflineUnavailable
		}

		if err := mgr.Drain(c.Context()); err != nil {
			if errors.Is(err, core.ErrSyncReplayFailure) {
				return err
			}
			return fiber.NewError(fiber.StatusInternalServerError, "sync failed: "+err.Error())
		}
		return c.JSON(fiber.Map{"synced": true})
	}
}

// -------------------------------------------------
// GET /api/catalog/:resource  (products|customers|suppliers)
// -------------------------------------------------
// Online: fetch from the upstream and refresh the snapshot. Offline: serve the
// last snapshot; callers must treat it as eventually consistent.
func CatalogHandler(m *Monitor, up Upstream, snapshots *SnapshotCache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resource := c.Params("resource")
		switch resource {
		case SnapshotProducts, SnapshotCustomers, SnapshotSuppliers:
		default:
			return fiber.NewError(fiber.StatusNotFound, "unknown catalog resource")
		}

		if m.Standalone() {
			return fiber.NewError(fiber.StatusBadRequest, "no upstream configured")
		}

		if m.Online() {
			data, err := up.FetchSnapshot(c.Context(), resource)
			if err == nil {
				snapshots.Store(resource, data)
				c.Set("Content-Type", "application/json")
				return c.Send(data)
			}
			logger.L.Warn("catalog fetch failed, falling back to snapshot",
				"resource", resource, "err", err)
			m.SetOnline(false)
		}

		data, ok := snapshots.Load(resource)
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable,
				"offline and no cached "+resource+" snapshot")
		}
		c.Set("Content-Type", "application/json")
		c.Set("X-Snapshot", "stale")
		return c.Send(data)
	}
}

// RefreshSnapshots pulls all catalog snapshots; called after a successful
// drain so a later offline stretch has fresh data.
func RefreshSnapshots(ctx context.Context, up Upstream, snapshots *SnapshotCache) {
	if up == nil {
		return
	}
	for _, resource := range []string{SnapshotProducts, SnapshotCustomers, SnapshotSuppliers} {
		data, err := up.FetchSnapshot(ctx, resource)
		if err != nil {
			logger.L.Warn("snapshot refresh failed", "resource", resource, "err", err)
			continue
		}
		snapshots.Store(resource, data)
	}
}
