package database

import (
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biniyam0960/Student-information-System/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "sis", Password: "pw", Name: "sis", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=sis password=pw dbname=sis sslmode=disable", dsn)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestRunMigrationsDelegatesToGoose(t *testing.T) {
	original := gooseRun
	defer func() { gooseRun = original }()

	var gotCommand string
	var gotArgs []string
	gooseRun = func(command string, db *sql.DB, dir string, args ...string) error {
		gotCommand = command
		gotArgs = args
		return nil
	}

	fsys := fstest.MapFS{"00001_init.sql": &fstest.MapFile{Data: []byte("-- +goose Up\n")}}
	require.NoError(t, RunMigrations("up-to", nil, fsys, nil, "3"))
	assert.Equal(t, "up-to", gotCommand)
	assert.Equal(t, []string{"3"}, gotArgs)
}

func TestRunMigrationsWrapsError(t *testing.T) {
	original := gooseRun
	defer func() { gooseRun = original }()
	gooseRun = func(string, *sql.DB, string, ...string) error { return errors.New("boom") }

	err := Migrate(nil, fstest.MapFS{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate up")
}
