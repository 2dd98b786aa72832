package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/deploywatch/deploywatch/internal/domain"
)

// Dispatcher executes exactly one delivery attempt and persists the
// resulting state transition. It decides what happens given a run, never
// when to run; scheduling lives in the Scheduler and the enqueue path.
type Dispatcher struct {
	store   DeliveryStore
	client  *http.Client
	backoff BackoffConfig
	logger  *slog.Logger
}

func NewDispatcher(store DeliveryStore, logger *slog.Logger, timeout time.Duration, backoff BackoffConfig) *Dispatcher {
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Dispatcher{
		store:   store,
		client:  &http.Client{Timeout: timeout},
		backoff: backoff,
		logger:  logger,
	}
}

// Attempt claims the delivery, posts the payload to the subscription
// endpoint and records the outcome.
//
// Returns domain.ErrDeliveryConflict when another worker holds the record;
// the caller abandons the attempt and the record stays for the next tick.
// A failed HTTP delivery is not an error here: the failure is written to
// the record and the retry schedule advances.
func (d *Dispatcher) Attempt(ctx context.Context, del *Delivery, sub *Subscription) error {
	// A record cancelled (or otherwise finished) between selection and
	// claim is a no-op; no network call.
	if del.Status.IsTerminal() {
		return nil
	}

	if err := d.claim(ctx, del); err != nil {
		return err
	}

	now := time.Now().UTC()
	del.AttemptCount++
	del.LastAttemptAt = &now

	statusCode, attemptErr := d.post(ctx, del, sub)

	if attemptErr == nil {
		del.Status = StatusSuccess
		del.NextAttemptAt = nil
		del.LastError = fmt.Sprintf("HTTP %d", statusCode)
	} else {
		del.LastError = attemptErr.Error()
		if del.AttemptCount >= del.MaxAttempts {
			del.Status = StatusFailed
			del.NextAttemptAt = nil
		} else {
			next := now.Add(d.backoff.Next(del.AttemptCount))
			del.Status = StatusPending
			del.NextAttemptAt = &next
		}
	}

	if err := d.store.Update(ctx, del, del.Version); err != nil {
		return fmt.Errorf("record attempt outcome: %w", err)
	}

	if attemptErr != nil {
		d.logger.Warn("webhook delivery attempt failed",
			"delivery_id", del.ID,
			"tenant_id", del.TenantID,
			"attempt", del.AttemptCount,
			"max_attempts", del.MaxAttempts,
			"status", del.Status,
			"error", attemptErr,
		)
	} else {
		d.logger.Info("webhook delivered",
			"delivery_id", del.ID,
			"tenant_id", del.TenantID,
			"attempt", del.AttemptCount,
			"http_status", statusCode,
		)
	}

	return nil
}

// claim transitions the record to in_progress via the conditional update.
// Losing the version race means another worker owns the attempt.
func (d *Dispatcher) claim(ctx context.Context, del *Delivery) error {
	del.Status = StatusInProgress

	err := d.store.Update(ctx, del, del.Version)
	if errors.Is(err, domain.ErrDeliveryConflict) {
		d.logger.Debug("delivery claim lost",
			"delivery_id", del.ID,
			"tenant_id", del.TenantID,
		)
		return domain.ErrDeliveryConflict
	}
	if err != nil {
		return fmt.Errorf("claim delivery: %w", err)
	}

	return nil
}

// post sends the payload. A nil error means a 2xx response; anything else
// (transport error, timeout, non-2xx) comes back as the failure cause.
func (d *Dispatcher) post(ctx context.Context, del *Delivery, sub *Subscription) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.TargetURL, bytes.NewReader(del.Payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Deploywatch-Signature", Sign(sub.Secret, del.Payload))
	req.Header.Set("X-Deploywatch-Event", del.EventType)
	req.Header.Set("X-Deploywatch-Delivery", del.ID.String())
	req.Header.Set("User-Agent", "Deploywatch-Webhook/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return resp.StatusCode, nil
}
