// Package notify is the client side of the push-notification collaborator.
// Delivery is best-effort: the caller starts a dispatch and only ever logs
// its failure, it never waits on it to acknowledge a message.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"social-chat/contract"
	apperrors "social-chat/errors"
)

// Dispatcher posts notification payloads to the configured HTTP endpoint.
// The per-call timeout keeps a stalled push service from pinning goroutines.
type Dispatcher struct {
	endpoint      string
	authorization string
	client        *http.Client
}

func NewDispatcher(endpoint, authorization string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		endpoint:      endpoint,
		authorization: authorization,
		client:        &http.Client{Timeout: timeout},
	}
}

// Send posts one notification. A non-2xx status is reported as an error so the
// caller can log it; there is no retry.
func (d *Dispatcher) Send(ctx context.Context, n contract.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.authorization != "" {
		req.Header.Set("Authorization", d.authorization)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", apperrors.ErrNotifierRejected, resp.StatusCode)
	}
	return nil
}
