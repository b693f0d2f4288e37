package main

import (
	"log"

	"career-counselor-be/internal/config"
	"career-counselor-be/internal/model"
	"career-counselor-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Database.Driver != database.DriverSQLite && cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDB(database.GormConfig{
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.Connection,
		LogLevel: cfg.Database.LogLevel,
	})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. Pre-Migration: extensions GORM AutoMigrate does not create
	if cfg.Database.Driver == database.DriverPostgres {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
			log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Printf("Running AutoMigrate for %d tables...", len(model.All()))
	if err := model.AutoMigrate(db); err != nil {
		log.Fatal("Error: Migration failed:", err)
	}

	log.Println("Migration completed successfully")
}
