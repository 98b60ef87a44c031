package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

type memoryUsers struct {
	existing map[string]bool
	created  []models.User
}

func (m *memoryUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	return m.existing[email] || m.existing[username], nil
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) error {
	user.ID = int64(len(m.created) + 1)
	m.created = append(m.created, *user)
	return nil
}

type migrateCall struct {
	command string
	args    []string
}

func setup() (*commandLine, *memoryUsers, *[]migrateCall) {
	users := &memoryUsers{existing: map[string]bool{"taken@school.test": true}}
	calls := &[]migrateCall{}
	cli := &commandLine{
		users: users,
		migrate: func(command string, _ *sql.DB, args ...string) error {
			*calls = append(*calls, migrateCall{command: command, args: args})
			if command == "down-to" && len(args) == 0 {
				return errors.New("down-to requires a version")
			}
			return nil
		},
		out: &bytes.Buffer{},
	}
	return cli, users, calls
}

func TestCommandLineMigrate(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantErrStr string
	}{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: `"lol": no such command`},
		{name: "down-to without version", args: []string{"migrate", "down-to"}, wantErrStr: "down-to requires a version"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, _, _ := setup()
			err := cli.run(append([]string{"sis-admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommandLineMigratePassesArgs(t *testing.T) {
	cli, _, calls := setup()
	require.NoError(t, cli.run([]string{"sis-admin", "migrate", "up-to", "3"}))
	assert.Equal(t, []migrateCall{{command: "up-to", args: []string{"3"}}}, *calls)
}

func TestCommandLineCreateAdmin(t *testing.T) {
	original := readPasswordFunc
	defer func() { readPasswordFunc = original }()

	tests := []struct {
		name       string
		args       []string
		pwd        string
		wantErr    error
		wantErrStr string
	}{
		{name: "missing flags", args: []string{"createadmin"}, wantErr: errHelp},
		{name: "missing username", args: []string{"createadmin", "-email", "a@school.test"}, pwd: "secret1", wantErr: errHelp},
		{name: "short password", args: []string{"createadmin", "-email", "a@school.test", "-username", "root"}, pwd: "abc", wantErr: errHelp},
		{name: "duplicate", args: []string{"createadmin", "-email", "Taken@School.test", "-username", "root"}, pwd: "secret1",
			wantErrStr: "a user with email taken@school.test or username root already exists"},
		{name: "created", args: []string{"createadmin", "-email", "Admin@School.test", "-username", "root"}, pwd: "secret1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, users, _ := setup()
			readPasswordFunc = func(int) ([]byte, error) { return []byte(tt.pwd), nil }

			err := cli.run(append([]string{"sis-admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
				assert.Empty(t, users.created)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
				assert.Empty(t, users.created)
			default:
				require.NoError(t, err)
				require.Len(t, users.created, 1)
				created := users.created[0]
				assert.Equal(t, "admin@school.test", created.Email)
				assert.Equal(t, models.RoleAdmin, created.Role)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret1")))
			}
		})
	}
}

func TestCommandLinePasswordPromptError(t *testing.T) {
	original := readPasswordFunc
	defer func() { readPasswordFunc = original }()
	readPasswordFunc = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }

	cli, _, _ := setup()
	err := cli.run([]string{"sis-admin", "createadmin", "-email", "a@school.test", "-username", "root"})
	assert.EqualError(t, err, "not a terminal")
}
