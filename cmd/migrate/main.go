package main

import (
	"os"

	"focustimer/internal/config"
	"focustimer/internal/db"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	applied, err := db.RunMigrations(database, cfg.MigrationsDir)
	if err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	if len(applied) == 0 {
		logger.Info("database is up to date", "path", cfg.DBPath)
		return
	}
	for _, name := range applied {
		logger.Info("migration applied", "name", name)
	}
}
