package offline

import (
	"encoding/json"
	"fmt"

	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Queue is the persisted FIFO of writes awaiting upstream acknowledgment.
// Order is the auto-increment id, i.e. strict enqueue order.
type Queue struct {
	db *gorm.DB
}

func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db}
}

// Enqueue appends an entry inside the caller's transaction, so the local
// write and its outbox entry commit atomically.
func (q *Queue) Enqueue(tx *gorm.DB, op models.OperationType, payload any, clientRef string, txID *uint) (*models.OutboxEntry, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal %s payload: %w", op, err)
	}
	if clientRef == "" {
		clientRef = uuid.NewString()
	}

	entry := models.OutboxEntry{
		OperationType: op,
		Payload:       string(body),
		ClientRef:     clientRef,
		TransactionID: txID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (q *Queue) PendingCount() (int64, error) {
	var count int64
	err := q.db.Model(&models.OutboxEntry{}).Count(&count).Error
	return count, err
}

// NextBatch returns up to limit entries in enqueue order.
func (q *Queue) NextBatch(limit int) ([]models.OutboxEntry, error) {
	var entries []models.OutboxEntry
	err := q.db.Order("id asc").Limit(limit).Find(&entries).Error
	return entries, err
}

// Ack removes an entry after the upstream confirmed it.
func (q *Queue) Ack(tx *gorm.DB, id uint) error {
	return tx.Delete(&models.OutboxEntry{}, id).Error
}

// MarkFailed records a replay failure; the entry stays queued.
func (q *Queue) MarkFailed(id uint, cause error) error {
	msg := cause.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return q.db.Model(&models.OutboxEntry{}).Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": msg,
		}).Error
}
