package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"career-counselor-be/internal/bootstrap"
	"career-counselor-be/internal/config"
	"career-counselor-be/internal/model"
	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/internal/server"
	"career-counselor-be/internal/tracer"
	"career-counselor-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(tracer.Config{
		Enabled:     cfg.App.OtelEnabled,
		Endpoint:    cfg.App.OtelEndpoint,
		Environment: cfg.App.Environment,
	}, sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database
	gormDB, err := database.NewGormDB(database.GormConfig{
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.Connection,
		LogLevel: cfg.Database.LogLevel,
	})
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	if cfg.Database.AutoMigrate || cfg.Database.Driver == database.DriverSQLite {
		if err := model.AutoMigrate(gormDB); err != nil {
			log.Panicf("Auto migration failed: %v", err)
		}
	}

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg, bootstrap.WithLogger(sysLogger))
	if err != nil {
		log.Panicf("Bootstrap failed: %v", err)
	}
	defer container.Close()

	// 5. Start Background Services
	if err := container.ActivityService.Start(); err != nil {
		log.Printf("Activity log disabled: %v", err)
	}

	// 6. Run Server
	srv := server.New(cfg, container)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
