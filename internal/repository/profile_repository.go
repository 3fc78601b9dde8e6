package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tusai/internal/domain"
	"tusai/internal/repository/models"
	"tusai/internal/util"
)

// sqlxProfileRepository implements domain.ProfileRepository using sqlx.
type sqlxProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) domain.ProfileRepository {
	return &sqlxProfileRepository{db: db}
}

func toDomainProfile(m *models.Profile) *domain.Profile {
	if m == nil {
		return nil
	}
	return &domain.Profile{
		ID:            m.ID,
		GoogleID:      m.GoogleID.String,
		Email:         m.Email.String,
		DisplayName:   m.DisplayName.String,
		IsPremium:     m.IsPremium,
		PremiumExpiry: util.NullTimeToPtr(m.PremiumExpiry),
		BillingRef:    m.BillingRef.String,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		DeletedAt:     util.NullTimeToPtr(m.DeletedAt),
	}
}

func fromDomainProfile(p *domain.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	return &models.Profile{
		ID:            p.ID,
		GoogleID:      util.StringToNullString(p.GoogleID),
		Email:         util.StringToNullString(p.Email),
		DisplayName:   util.StringToNullString(p.DisplayName),
		IsPremium:     p.IsPremium,
		PremiumExpiry: util.TimePtrToNullTime(p.PremiumExpiry),
		BillingRef:    util.StringToNullString(p.BillingRef),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		DeletedAt:     util.TimePtrToNullTime(p.DeletedAt),
	}
}

// CreateProfile inserts a new profile row.
func (r *sqlxProfileRepository) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	executor := GetExecutor(ctx, r.db)

	model := fromDomainProfile(profile)
	now := time.Now()
	model.CreatedAt = now
	model.UpdatedAt = now

	query := `INSERT INTO profiles (id, google_id, email, display_name, is_premium, premium_expiry, billing_ref, created_at, updated_at)
	          VALUES (:id, :google_id, :email, :display_name, :is_premium, :premium_expiry, :billing_ref, :created_at, :updated_at)`

	if _, err := executor.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	profile.CreatedAt = model.CreatedAt
	profile.UpdatedAt = model.UpdatedAt
	return nil
}

// GetProfileByID retrieves a profile by its ID. Returns (nil, nil) when the
// profile does not exist, so the service layer can decide between creating
// one and failing.
func (r *sqlxProfileRepository) GetProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	executor := GetExecutor(ctx, r.db)

	var model models.Profile
	query := `SELECT id, google_id, email, display_name, is_premium, premium_expiry, billing_ref, created_at, updated_at, deleted_at
	          FROM profiles WHERE id = $1 AND deleted_at IS NULL`

	if err := executor.GetContext(ctx, &model, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile by id: %w", err)
	}
	return toDomainProfile(&model), nil
}

// GetProfileByGoogleID retrieves a profile by its external identity
// reference. Returns (nil, nil) when no profile is linked to it yet.
func (r *sqlxProfileRepository) GetProfileByGoogleID(ctx context.Context, googleID string) (*domain.Profile, error) {
	executor := GetExecutor(ctx, r.db)

	var model models.Profile
	query := `SELECT id, google_id, email, display_name, is_premium, premium_expiry, billing_ref, created_at, updated_at, deleted_at
	          FROM profiles WHERE google_id = $1 AND deleted_at IS NULL`

	if err := executor.GetContext(ctx, &model, query, googleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile by google_id: %w", err)
	}
	return toDomainProfile(&model), nil
}

// UpdateProfile updates an existing profile row.
func (r *sqlxProfileRepository) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	executor := GetExecutor(ctx, r.db)

	model := fromDomainProfile(profile)
	model.UpdatedAt = time.Now()

	query := `UPDATE profiles SET
	            google_id = :google_id,
	            email = :email,
	            display_name = :display_name,
	            is_premium = :is_premium,
	            premium_expiry = :premium_expiry,
	            billing_ref = :billing_ref,
	            updated_at = :updated_at
	          WHERE id = :id AND deleted_at IS NULL`

	result, err := executor.NamedExecContext(ctx, query, model)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for profile update: %w", err)
	}
	if rows == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("profile %s not found", profile.ID))
	}

	profile.UpdatedAt = model.UpdatedAt
	return nil
}
