// Package notify delivers scout results to external channels. Delivery is
// best-effort: failures are logged by the caller and never affect a cycle.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/locotown/open-scouts/internal/dispatch"
	"github.com/locotown/open-scouts/internal/scout"
)

type WebhookNotifier struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

func NewWebhookNotifier(endpoint string, log zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

type webhookPayload struct {
	ScoutID     string    `json:"scout_id"`
	Title       string    `json:"title"`
	Goal        string    `json:"goal"`
	Summary     string    `json:"summary"`
	ItemCount   int       `json:"item_count"`
	DeliveredAt time.Time `json:"delivered_at"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, sc *scout.Scout, res *dispatch.Result) error {
	body, err := json.Marshal(webhookPayload{
		ScoutID:     sc.ID,
		Title:       sc.Title,
		Goal:        sc.Goal,
		Summary:     res.Summary,
		ItemCount:   res.ItemCount,
		DeliveredAt: time.Now(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.log.Debug().Str("scout_id", sc.ID).Msg("webhook notification delivered")
	return nil
}

// Multi fans a notification out to several channels and joins their errors.
type Multi []dispatch.Notifier

func (m Multi) Notify(ctx context.Context, sc *scout.Scout, res *dispatch.Result) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, sc, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
