// Package dormancy deactivates scouts owned by accounts that have not signed
// in within the inactivity threshold.
package dormancy

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/locotown/open-scouts/internal/store"
)

// DefaultThreshold is how long an account may go without a sign-in before its
// scouts are deactivated.
const DefaultThreshold = 30 * 24 * time.Hour

type Sweeper struct {
	store store.Store
	log   zerolog.Logger
}

func NewSweeper(st store.Store, log zerolog.Logger) *Sweeper {
	return &Sweeper{store: st, log: log}
}

// Run deactivates every active scout owned by a dormant account and returns
// the number of scouts deactivated. The account set is fixed up front; an
// account whose activity lookup fails with anything other than "not found"
// is skipped this cycle. Store failures degrade to zero deactivated.
func (s *Sweeper) Run(ctx context.Context, now time.Time, threshold time.Duration) int {
	owners, err := s.store.ActiveScoutOwners(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list scout owners")
		return 0
	}

	deadline := now.Add(-threshold)

	var dormant []string
	for _, accountID := range owners {
		lastSignIn, err := s.store.AccountLastSignIn(ctx, accountID)
		if errors.Is(err, store.ErrAccountNotFound) {
			// No activity record at all counts as dormant.
			dormant = append(dormant, accountID)
			continue
		}
		if err != nil {
			s.log.Error().Err(err).
				Str("account_id", accountID).
				Msg("failed to look up account activity, skipping")
			continue
		}

		if lastSignIn.Before(deadline) {
			dormant = append(dormant, accountID)
		}
	}

	if len(dormant) == 0 {
		return 0
	}

	deactivated, err := s.store.DeactivateScouts(ctx, dormant)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to deactivate scouts of dormant accounts")
		return 0
	}

	s.log.Info().
		Int("accounts", len(dormant)).
		Int("scouts_deactivated", deactivated).
		Msg("dormancy sweep complete")

	return deactivated
}
