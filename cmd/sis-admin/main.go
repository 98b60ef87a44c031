package main

import (
	"database/sql"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/biniyam0960/Student-information-System/internal/repository"
	"github.com/biniyam0960/Student-information-System/migrations"
	"github.com/biniyam0960/Student-information-System/pkg/config"
	"github.com/biniyam0960/Student-information-System/pkg/database"
	"github.com/biniyam0960/Student-information-System/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("open database", zap.Error(err))
	}

	cli := commandLine{
		db:    db.DB,
		users: repository.NewUserRepository(db),
		migrate: func(command string, conn *sql.DB, args ...string) error {
			return database.RunMigrations(command, conn, migrations.FS, logr, args...)
		},
		out: os.Stdout,
	}
	err = cli.run(os.Args)
	db.Close() //nolint:errcheck
	logr.Sync() //nolint:errcheck
	if err != nil {
		if err != errHelp {
			log.Printf("error: %s", err)
		}
		os.Exit(1)
	}
}
