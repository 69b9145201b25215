package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"facility-booking-backend/config"
	"facility-booking-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Facility{},
		&model.Reservation{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableOverlapConstraint {
		log.Println("Applying database-level overlap constraint...")
		if err := applyOverlapConstraintDDL(db); err != nil {
			return nil, fmt.Errorf("failed to apply overlap constraint: %w", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// applyOverlapConstraintDDL installs a GIST exclusion constraint so that no
// two active reservations on the same facility and date can hold
// overlapping minute ranges, regardless of what the application layer
// checked. The client-side pre-submit check only shrinks the race window;
// this constraint closes it.
func applyOverlapConstraintDDL(db *gorm.DB) error {
	for _, ddl := range overlapConstraintDDL() {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}

// overlapConstraintDDL returns the constraint statements. Every statement
// guards its own existence, so running Init against an already-constrained
// schema is a no-op and restarts never fail on re-application.
func overlapConstraintDDL() []string {
	return []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		`DO $$ BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_minutes_valid') THEN
		ALTER TABLE reservations
			ADD CONSTRAINT reservations_minutes_valid CHECK (start_minute < end_minute);
	END IF;
END $$;`,

		// Half-open minute ranges, matching the engine's overlap algebra.
		`DO $$ BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_no_overlap') THEN
		ALTER TABLE reservations
			ADD CONSTRAINT reservations_no_overlap EXCLUDE USING GIST (
				facility_id WITH =, date WITH =,
				int4range(start_minute, end_minute, '[)') WITH &&
			) WHERE (status IN ('pending', 'confirmed'));
	END IF;
END $$;`,
	}
}
