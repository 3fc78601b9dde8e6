package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"tusai/internal/domain"
	"tusai/internal/repository/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a new sqlx.DB instance and sqlmock for repository testing.
func setupTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	return sqlxDB, mock
}

func TestToDomainProfile(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	expiry := now.Add(24 * time.Hour)
	model := &models.Profile{
		ID:            "01HTESTPROFILE00000000000A",
		DisplayName:   sql.NullString{String: "Dr. Kim", Valid: true},
		IsPremium:     true,
		PremiumExpiry: sql.NullTime{Time: expiry, Valid: true},
		BillingRef:    sql.NullString{String: "cus_123", Valid: true},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	p := toDomainProfile(model)
	require.NotNil(t, p)
	assert.Equal(t, model.ID, p.ID)
	assert.Equal(t, "Dr. Kim", p.DisplayName)
	assert.True(t, p.IsPremium)
	require.NotNil(t, p.PremiumExpiry)
	assert.True(t, expiry.Equal(*p.PremiumExpiry))
	assert.Equal(t, "cus_123", p.BillingRef)
	assert.Nil(t, p.DeletedAt)

	model.DisplayName.Valid = false
	model.PremiumExpiry.Valid = false
	p = toDomainProfile(model)
	assert.Equal(t, "", p.DisplayName)
	assert.Nil(t, p.PremiumExpiry)

	assert.Nil(t, toDomainProfile(nil))
}

func TestFromDomainProfile(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	p := &domain.Profile{
		ID:          "01HTESTPROFILE00000000000A",
		DisplayName: "Dr. Kim",
		IsPremium:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	model := fromDomainProfile(p)
	require.NotNil(t, model)
	assert.Equal(t, p.ID, model.ID)
	assert.True(t, model.DisplayName.Valid)
	assert.Equal(t, "Dr. Kim", model.DisplayName.String)
	assert.False(t, model.IsPremium)
	assert.False(t, model.PremiumExpiry.Valid)
	assert.False(t, model.BillingRef.Valid)

	assert.Nil(t, fromDomainProfile(nil))
}

func TestProfileRepository_CreateProfile(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewProfileRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO profiles (id, google_id, email, display_name, is_premium, premium_expiry, billing_ref, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	profile := &domain.Profile{ID: "01HTESTPROFILE00000000000A", DisplayName: "Dr. Kim"}
	err := repo.CreateProfile(context.Background(), profile)
	require.NoError(t, err)
	assert.False(t, profile.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetProfileByID(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewProfileRepository(db)
	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "google_id", "email", "display_name", "is_premium", "premium_expiry", "billing_ref", "created_at", "updated_at", "deleted_at"}).
			AddRow("01HTESTPROFILE00000000000A", "google-123", "kim@example.com", "Dr. Kim", true, now.Add(time.Hour), "cus_123", now, now, nil)
		mock.ExpectQuery(`SELECT .+ FROM profiles WHERE id = \$1 AND deleted_at IS NULL`).
			WithArgs("01HTESTPROFILE00000000000A").
			WillReturnRows(rows)

		p, err := repo.GetProfileByID(context.Background(), "01HTESTPROFILE00000000000A")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Dr. Kim", p.DisplayName)
		assert.True(t, p.IsPremium)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM profiles WHERE id = \$1 AND deleted_at IS NULL`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		p, err := repo.GetProfileByID(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_UpdateProfile(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewProfileRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE profiles SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateProfile(context.Background(), &domain.Profile{ID: "01HTESTPROFILE00000000000A", DisplayName: "Renamed"})
		assert.NoError(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec(`UPDATE profiles SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateProfile(context.Background(), &domain.Profile{ID: "missing"})
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeNotFound, domainErr.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
