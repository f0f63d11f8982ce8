// Package routing resolves inbound messages to owning admin accounts.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/intakelabs/waintake/internal/domain"
	"github.com/intakelabs/waintake/internal/identity"
	"github.com/intakelabs/waintake/internal/store"
)

// ErrNoAdmin indicates no eligible admin account could be resolved.
// Callers must drop the message: the log schema requires an admin reference.
var ErrNoAdmin = errors.New("no active admin account")

// SelfPhoneFunc returns the transport session's own phone identifier, or
// empty when the session identity is not known yet.
type SelfPhoneFunc func() string

// Resolver maps an inbound message's destination to exactly one active admin.
type Resolver struct {
	repo      store.Repository
	selfPhone SelfPhoneFunc
}

// NewResolver creates a resolver backed by the given repository. selfPhone
// may be nil when the transport session identity is unavailable.
func NewResolver(repo store.Repository, selfPhone SelfPhoneFunc) *Resolver {
	return &Resolver{repo: repo, selfPhone: selfPhone}
}

// Resolve picks the owning admin for a message addressed to destination.
// An active admin whose phone exactly matches the resolved destination always
// wins; otherwise the top-ranked active admin is used as a fallback. The
// transport account may run under a phone that is not itself in the admin
// table (a shared business number), so the fallback keeps those messages
// routable instead of silently dropping every one.
func (r *Resolver) Resolve(ctx context.Context, destination string) (*domain.AdminAccount, error) {
	phone := identity.NormalizePhone(destination)
	if phone == "" && r.selfPhone != nil {
		phone = identity.NormalizePhone(r.selfPhone())
	}
	if phone == "" {
		return nil, ErrNoAdmin
	}

	admin, err := r.repo.GetActiveAdminByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup admin by phone: %w", err)
	}
	if admin != nil {
		return admin, nil
	}

	admins, err := r.repo.ListActiveAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active admins: %w", err)
	}
	fallback := TopRanked(admins)
	if fallback == nil {
		return nil, ErrNoAdmin
	}

	slog.Warn("No admin matched destination phone, falling back",
		"phone", phone, "fallback_id", fallback.ID, "fallback_phone", fallback.Phone)
	return fallback, nil
}

// TopRanked returns the best fallback candidate among the given admins,
// or nil for an empty slice.
func TopRanked(admins []domain.AdminAccount) *domain.AdminAccount {
	if len(admins) == 0 {
		return nil
	}
	best := admins[0]
	for _, a := range admins[1:] {
		if RanksAhead(a, best) {
			best = a
		}
	}
	return &best
}

// RanksAhead reports whether a ranks ahead of b for fallback routing:
// super admins before client admins, ties broken by ascending id.
func RanksAhead(a, b domain.AdminAccount) bool {
	ar, br := tierRank(a.Tier), tierRank(b.Tier)
	if ar != br {
		return ar < br
	}
	return a.ID < b.ID
}

func tierRank(t domain.AdminTier) int {
	if t == domain.TierSuperAdmin {
		return 0
	}
	return 1
}
