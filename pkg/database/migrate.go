package database

import (
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// MigrationsDir is the directory inside the migrations filesystem holding SQL files.
const MigrationsDir = "."

// gooseRun is swapped in tests.
var gooseRun = goose.Run

// Migrate applies every pending migration found in fsys.
func Migrate(db *sql.DB, fsys fs.FS, logger *zap.Logger) error {
	return RunMigrations("up", db, fsys, logger)
}

// RunMigrations executes a goose command (up, down, status, redo, version...) against db.
func RunMigrations(command string, db *sql.DB, fsys fs.FS, logger *zap.Logger, args ...string) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	goose.SetBaseFS(fsys)
	goose.SetLogger(gooseLogger{l: logger.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := gooseRun(command, db, MigrationsDir, args...); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}

type gooseLogger struct {
	l *zap.SugaredLogger
}

func (g gooseLogger) Fatal(v ...interface{})                 { g.l.Fatal(v...) }
func (g gooseLogger) Fatalf(format string, v ...interface{}) { g.l.Fatalf(format, v...) }
func (g gooseLogger) Print(v ...interface{})                 { g.l.Info(v...) }
func (g gooseLogger) Println(v ...interface{})               { g.l.Info(v...) }
func (g gooseLogger) Printf(format string, v ...interface{}) { g.l.Infof(format, v...) }
