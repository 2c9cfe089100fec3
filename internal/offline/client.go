package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/models"
)

// ErrUpstreamRejected marks a reply the upstream received but refused (a
// business rejection, not a transport failure). The link itself is healthy.
var ErrUpstreamRejected = errors.New("upstream rejected the operation")

// Upstream is the head-office backend the store mirrors its writes to.
type Upstream interface {
	Ping(ctx context.Context) error
	Replay(ctx context.Context, entry models.OutboxEntry) (remoteID string, err error)
	FetchSnapshot(ctx context.Context, resource string) ([]byte, error)
}

// Client talks to the upstream over plain HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("upstream unhealthy: %s", resp.Status)
	}
	return nil
}

// operation type -> upstream collection path
var replayPaths = map[models.OperationType]string{
	models.OpSale:           "/api/sales/",
	models.OpPurchase:       "/api/purchases/",
	models.OpExpense:        "/api/expenses/",
	models.OpCapital:        "/api/capital/",
	models.OpWithdrawal:     "/api/withdrawals/",
	models.OpReturn:         "/api/returns/",
	models.OpDebtSettlement: "/api/debt-settlements/",
}

// Replay posts one queued entry. The entry's ClientRef travels as the
// Idempotency-Key header on every attempt, so a retry after a lost ack is a
// no-op upstream.
func (c *Client) Replay(ctx context.Context, entry models.OutboxEntry) (string, error) {
	path, ok := replayPaths[entry.OperationType]
	if !ok {
		return "", fmt.Errorf("no replay path for operation %q", entry.OperationType)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		bytes.NewReader([]byte(entry.Payload)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", entry.ClientRef)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s: %s: %s", ErrUpstreamRejected, entry.OperationType, resp.Status, string(body))
	}

	// The upstream may use numeric or string ids.
	var ack struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		return "", nil // acked without a parseable id
	}
	return ack.ID.String(), nil
}

func (c *Client) FetchSnapshot(ctx context.Context, resource string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/"+resource+"/", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream %s fetch failed: %s", resource, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 16<<20))
}
