package database

import (
	"fmt"

	"nitpickr-api/internal/domain/billing"
	"nitpickr-api/internal/domain/files"
	"nitpickr-api/internal/domain/issues"
	"nitpickr-api/internal/domain/nitpicks"
	"nitpickr-api/internal/domain/realestate"
	"nitpickr-api/internal/domain/teams"
	"nitpickr-api/internal/domain/tiers"
	"nitpickr-api/internal/domain/usage"
	"nitpickr-api/internal/domain/users"
	"nitpickr-api/internal/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

var log = logger.New("database")

// Models lists every table the service owns, in migration order.
func Models() []interface{} {
	return []interface{}{
		// accounts
		&users.User{},
		&users.VerificationToken{},
		&teams.Team{},
		&teams.TeamMember{},
		&teams.Invitation{},

		// billing
		&tiers.Tier{},
		&billing.Service{},
		&billing.Price{},
		&billing.Subscription{},
		&usage.ResourceUsage{},

		// properties
		&realestate.RealEstate{},
		&nitpicks.Nitpick{},
		&issues.RealEstateIssue{},
		&issues.IssueComment{},
		&issues.IssueVote{},
		&files.File{},
	}
}

func InitDB(dsn string) error {
	if dsn == "" {
		return fmt.Errorf("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	log.Info("Connected and migrated successfully")
	return nil
}

// Migrate creates or updates the schema and seeds the fixed plan tiers.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return SeedTiers(db)
}

// SeedTiers inserts the fixed tiers that are missing. Existing rows are left
// as they are so that admins can tune limits in the database.
func SeedTiers(db *gorm.DB) error {
	for _, t := range tiers.Fixed() {
		tier := t
		if err := db.Where("id = ?", tier.ID).FirstOrCreate(&tier).Error; err != nil {
			return fmt.Errorf("seed tier %s: %w", tier.ID, err)
		}
	}
	return nil
}
