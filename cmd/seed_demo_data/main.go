package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"tusai/internal/config"
	"tusai/internal/database"
	"tusai/internal/domain"
	"tusai/internal/logger"
	"tusai/internal/repository"
	"tusai/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const seedFilePath = "configs/seed_data/demo_profiles.json"

// seedProfile mirrors one entry of the seed file: a demo user plus the
// finished attempts credited to them. Attempts carry only the aggregate
// numbers; per-question details are not seeded.
type seedProfile struct {
	GoogleID    string        `json:"google_id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"display_name"`
	IsPremium   bool          `json:"is_premium"`
	Attempts    []seedAttempt `json:"attempts"`
}

type seedAttempt struct {
	Mode           string   `json:"mode"`
	Subjects       []string `json:"subjects"`
	CorrectCount   int      `json:"correct_count"`
	TotalCount     int      `json:"total_count"`
	ElapsedSeconds int      `json:"elapsed_seconds"`
	DaysAgo        int      `json:"days_ago"`
}

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	log.Info("Starting demo data seeding process...")
	db, err := database.NewSQLXPostgresDB(cfg.GetDSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	log.Info("Loading seed data from file", zap.String("path", seedFilePath))
	byteValue, err := os.ReadFile(seedFilePath)
	if err != nil {
		log.Fatal("Failed to read seed file", zap.String("path", seedFilePath), zap.Error(err))
	}

	var seedProfiles []seedProfile
	if err := json.Unmarshal(byteValue, &seedProfiles); err != nil {
		log.Fatal("Failed to unmarshal seed data", zap.Error(err))
	}
	log.Info("Successfully unmarshalled seed data", zap.Int("profiles_loaded", len(seedProfiles)))

	for _, sp := range seedProfiles {
		if err := seedProfileData(ctx, db, log, sp); err != nil {
			log.Error("Error seeding profile, transaction rolled back", zap.String("display_name", sp.DisplayName), zap.Error(err))
		}
	}
	log.Info("Demo data seeding process completed.")
}

func seedProfileData(
	ctx context.Context,
	db *sqlx.DB,
	log *zap.Logger,
	sp seedProfile,
) (err error) {
	log.Info("Processing profile", zap.String("display_name", sp.DisplayName))
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for profile %s: %w", sp.DisplayName, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Error("Rolling back transaction due to error", zap.Error(err), zap.String("display_name_rb", sp.DisplayName))
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				log.Error("Failed to commit transaction", zap.Error(cErr))
				err = cErr
			} else {
				log.Info("Successfully committed transaction for profile", zap.String("display_name", sp.DisplayName))
			}
		}
	}()

	txProfileRepo := repository.NewProfileRepository(repository.WrapTx(tx))
	txHistoryRepo := repository.NewHistoryRepository(repository.WrapTx(tx))

	profile, err := txProfileRepo.GetProfileByGoogleID(ctx, sp.GoogleID)
	if err != nil {
		return fmt.Errorf("error checking profile %s: %w", sp.DisplayName, err)
	}
	if profile == nil {
		log.Info("Profile not found, creating.", zap.String("display_name", sp.DisplayName))
		profile = &domain.Profile{
			ID:          util.NewULID(),
			GoogleID:    sp.GoogleID,
			Email:       sp.Email,
			DisplayName: sp.DisplayName,
			IsPremium:   sp.IsPremium,
		}
		if err = txProfileRepo.CreateProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to save profile %s: %w", sp.DisplayName, err)
		}
		log.Info("Created profile.", zap.String("id", profile.ID), zap.String("display_name", profile.DisplayName))
	} else {
		log.Info("Profile exists, skipping attempts.", zap.String("id", profile.ID), zap.String("display_name", profile.DisplayName))
		return nil
	}

	for _, sa := range sp.Attempts {
		mode, ok := domain.ParseQuizMode(sa.Mode)
		if !ok {
			return fmt.Errorf("invalid mode %q for profile %s", sa.Mode, sp.DisplayName)
		}
		if len(sa.Subjects) == 0 {
			return fmt.Errorf("attempt without subjects for profile %s", sp.DisplayName)
		}
		record := buildRecord(profile.ID, mode, sa)
		if err = txHistoryRepo.InsertRecord(ctx, record); err != nil {
			return fmt.Errorf("failed to save attempt for profile %s: %w", sp.DisplayName, err)
		}
		log.Info("Created attempt.", zap.String("id", record.ID), zap.Int("score", record.Score))
	}
	return nil
}

// buildRecord expands an aggregate seed attempt into a HistoryRecord.
// Correct answers are spread over the subjects round-robin so the
// per-subject stats add up to the attempt totals.
func buildRecord(ownerID string, mode domain.QuizMode, sa seedAttempt) *domain.HistoryRecord {
	stats := make(map[string]domain.SubjectStat, len(sa.Subjects))
	for i := 0; i < sa.TotalCount; i++ {
		subject := sa.Subjects[i%len(sa.Subjects)]
		stat := stats[subject]
		stat.Total++
		if i < sa.CorrectCount {
			stat.Correct++
		}
		stats[subject] = stat
	}

	return &domain.HistoryRecord{
		ID:             util.NewULID(),
		OwnerID:        ownerID,
		Mode:           mode,
		Subjects:       sa.Subjects,
		TotalCount:     sa.TotalCount,
		CorrectCount:   sa.CorrectCount,
		WrongCount:     sa.TotalCount - sa.CorrectCount,
		Score:          domain.ScorePercentage(sa.CorrectCount, sa.TotalCount),
		ElapsedSeconds: sa.ElapsedSeconds,
		Details:        []domain.QuestionDetail{},
		SubjectStats:   stats,
		CreatedAt:      time.Now().AddDate(0, 0, -sa.DaysAgo),
	}
}
