package service

import (
	"context"
	"fmt"
	"time"

	"tusai/internal/domain"
	"tusai/internal/logger"

	"go.uber.org/zap"
)

// ProfileService resolves and edits profiles. Premium expiry is enforced on
// the resolve path: a stale premium flag is cleared and persisted before the
// profile is handed to any gate.
type ProfileService interface {
	ResolveProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateDisplayName(ctx context.Context, userID string, displayName string) (*domain.Profile, error)
	ApplyBillingUpdate(ctx context.Context, userID string, isPremium bool, premiumExpiry *time.Time, billingRef string) error
}

type profileServiceImpl struct {
	profileRepo domain.ProfileRepository
	txManager   domain.TransactionManager
	now         func() time.Time
}

func NewProfileService(profileRepo domain.ProfileRepository, txManager domain.TransactionManager) ProfileService {
	return &profileServiceImpl{
		profileRepo: profileRepo,
		txManager:   txManager,
		now:         time.Now,
	}
}

// ResolveProfile returns the profile for userID, creating it on first sight.
// The profile ID is the identity reference itself, so the lazily created row
// reuses the authenticated user's ID.
func (s *profileServiceImpl) ResolveProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	if userID == "" {
		return nil, domain.NewInvalidInputError("user id is required")
	}

	profile, err := s.profileRepo.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}

	if profile == nil {
		profile = &domain.Profile{ID: userID}
		if err := s.profileRepo.CreateProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("failed to create profile on first sight: %w", err)
		}
		logger.Get().Info("Profile created lazily", zap.String("userID", userID))
		return profile, nil
	}

	if profile.PremiumExpired(s.now()) {
		profile.IsPremium = false
		if err := s.profileRepo.UpdateProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("failed to clear expired premium flag: %w", err)
		}
		logger.Get().Info("Expired premium flag cleared",
			zap.String("userID", userID),
			zap.Timep("premiumExpiry", profile.PremiumExpiry))
	}

	return profile, nil
}

// UpdateDisplayName is the profile self-edit operation.
func (s *profileServiceImpl) UpdateDisplayName(ctx context.Context, userID string, displayName string) (*domain.Profile, error) {
	if displayName == "" {
		return nil, domain.NewInvalidInputError("display name is required")
	}

	profile, err := s.ResolveProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.DisplayName = displayName
	if err := s.profileRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update display name: %w", err)
	}
	return profile, nil
}

// ApplyBillingUpdate applies a premium entitlement change from the billing
// provider. It runs inside a transaction so a concurrent resolve cannot
// observe a half-applied update.
func (s *profileServiceImpl) ApplyBillingUpdate(ctx context.Context, userID string, isPremium bool, premiumExpiry *time.Time, billingRef string) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		profile, err := s.profileRepo.GetProfileByID(txCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to load profile for billing update: %w", err)
		}
		if profile == nil {
			profile = &domain.Profile{ID: userID}
			if err := s.profileRepo.CreateProfile(txCtx, profile); err != nil {
				return fmt.Errorf("failed to create profile for billing update: %w", err)
			}
		}

		profile.IsPremium = isPremium
		profile.PremiumExpiry = premiumExpiry
		if billingRef != "" {
			profile.BillingRef = billingRef
		}

		if err := s.profileRepo.UpdateProfile(txCtx, profile); err != nil {
			return fmt.Errorf("failed to apply billing update: %w", err)
		}

		logger.Get().Info("Billing update applied",
			zap.String("userID", userID),
			zap.Bool("isPremium", isPremium),
			zap.Timep("premiumExpiry", premiumExpiry))
		return nil
	})
}
