package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lumina-edu/exam-service/internal/config"
	"github.com/lumina-edu/exam-service/internal/models"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Translate driver errors so unique violations surface as
		// gorm.ErrDuplicatedKey.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate creates the service-owned tables. The course and enrollment
// tables belong to the platform core and are not migrated here.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Exam{},
		&models.ExamSettings{},
		&models.ExamQuestion{},
		&models.ExamAttempt{},
		&models.AttemptAnswer{},
		&models.AttemptViolation{},
		&models.ReAttemptRequest{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// At most one in_progress attempt per (exam, student). AutoMigrate
	// cannot express a partial index, so it is created directly.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_attempt
		 ON exam_attempts (exam_id, student_id)
		 WHERE status = 'in_progress'`,
	).Error; err != nil {
		return fmt.Errorf("failed to create active-attempt index: %w", err)
	}

	// One re-attempt request per (student, originating attempt).
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_request_per_attempt
		 ON exam_reattempt_requests (student_id, original_attempt_id)
		 WHERE original_attempt_id IS NOT NULL`,
	).Error; err != nil {
		return fmt.Errorf("failed to create re-attempt uniqueness index: %w", err)
	}

	return nil
}
