// Package credentials ensures each account has a working key for the search
// provider. EnsureKey is idempotent and runs out-of-band, never on the
// cycle's critical path; failures are logged by the caller, not surfaced.
package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type Provisioner struct {
	baseURL  string
	adminKey string
	client   *http.Client
	log      zerolog.Logger
}

func NewProvisioner(baseURL, adminKey string, log zerolog.Logger) *Provisioner {
	return &Provisioner{
		baseURL:  baseURL,
		adminKey: adminKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// EnsureKey checks whether the account already has a provider key and creates
// one if not. Calling it repeatedly for the same account is safe.
func (p *Provisioner) EnsureKey(ctx context.Context, accountID string) error {
	exists, err := p.keyExists(ctx, accountID)
	if err != nil {
		return err
	}
	if exists {
		p.log.Debug().Str("account_id", accountID).Msg("provider key already present")
		return nil
	}

	if err := p.createKey(ctx, accountID); err != nil {
		return err
	}

	p.log.Info().Str("account_id", accountID).Msg("provider key provisioned")
	return nil
}

func (p *Provisioner) keyExists(ctx context.Context, accountID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/keys/"+accountID, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+p.adminKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("key lookup failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("key lookup returned status %d", resp.StatusCode)
	}
}

func (p *Provisioner) createKey(ctx context.Context, accountID string) error {
	body, err := json.Marshal(map[string]string{"account_id": accountID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/keys", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.adminKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("key creation failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Conflict means another provision raced us; the key exists either way.
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("key creation returned status %d", resp.StatusCode)
	}

	return nil
}
