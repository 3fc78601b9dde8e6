package domain

import (
	"context"
	"time"
)

// Profile represents the application-level record attached to an identity.
// One profile exists per identity; it is created lazily on first sight.
type Profile struct {
	ID            string // same ULID as the identity it belongs to
	GoogleID      string // external identity reference, empty until first login
	Email         string
	DisplayName   string
	IsPremium     bool
	PremiumExpiry *time.Time
	BillingRef    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// Validate validates the profile
func (p *Profile) Validate() error {
	if p.ID == "" {
		return NewInvalidInputError("profile id is required")
	}
	return nil
}

// PremiumExpired reports whether the premium flag is stale, i.e. the profile
// is marked premium but its expiry timestamp has passed. Enforcement happens
// on the resolve/refresh path; the feature gate itself trusts IsPremium.
func (p *Profile) PremiumExpired(now time.Time) bool {
	return p.IsPremium && p.PremiumExpiry != nil && p.PremiumExpiry.Before(now)
}

// Capability names a gated feature tier.
type Capability string

const (
	// CapabilityPremium gates question counts above the free cap, time
	// limits, full explanation visibility and PDF export.
	CapabilityPremium Capability = "premium"
)

// AllowsCapability is the feature-gate predicate. It is deliberately a pure
// check against the flags as given: expiry is handled by the profile
// resolver, not here.
func AllowsCapability(profile *Profile, capability Capability) bool {
	if profile == nil {
		return false
	}
	switch capability {
	case CapabilityPremium:
		return profile.IsPremium
	default:
		return false
	}
}

// ProfileRepository defines the interface for profile persistence.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *Profile) error
	GetProfileByID(ctx context.Context, id string) (*Profile, error)
	GetProfileByGoogleID(ctx context.Context, googleID string) (*Profile, error)
	UpdateProfile(ctx context.Context, profile *Profile) error
}

// TransactionManager runs a function within a storage transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
