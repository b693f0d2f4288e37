package main

import (
	"context"
	"log"
	"os"
	"time"

	"career-counselor-be/internal/config"
	"career-counselor-be/internal/model"
	"career-counselor-be/internal/repository/unitofwork"
	"career-counselor-be/pkg/database"

	"golang.org/x/crypto/bcrypt"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "demo-password"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Driver != database.DriverSQLite && cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDB(database.GormConfig{
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.Connection,
		LogLevel: cfg.Database.LogLevel,
	})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	if cfg.Database.Driver == database.DriverSQLite {
		if err := model.AutoMigrate(db); err != nil {
			log.Fatal("Error: Migration failed:", err)
		}
	}

	password := os.Getenv("DEMO_PASSWORD")
	if password == "" {
		password = demoPassword
	}

	seeder := &demoSeeder{
		uowFactory: unitofwork.NewRepositoryFactory(db),
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := seeder.Run(context.Background(), demoEmail, password); err != nil {
		log.Fatal("Error: Seeding failed, nothing was written:", err)
	}

	log.Printf("Seeding completed! Sign in as %s", demoEmail)
}
