package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

const minPasswordLength = 6

var migrateCommands = map[string]bool{
	"up": true, "up-by-one": true, "up-to": true, "down": true, "down-to": true,
	"redo": true, "reset": true, "status": true, "version": true,
}

type adminUserStore interface {
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

type migrator func(command string, db *sql.DB, args ...string) error

type commandLine struct {
	db      *sql.DB
	users   adminUserStore
	migrate migrator
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate up|up-by-one|up-to V|down|down-to V|redo|reset|status|version - run schema migrations")
	fmt.Fprintln(cli.out, "  createadmin -email EMAIL -username USERNAME - create an admin user; the password is prompted next")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	createAdminCmd.SetOutput(cli.out)
	email := createAdminCmd.String("email", "", "The admin's email address.")
	username := createAdminCmd.String("username", "", "The admin's username.")
	firstName := createAdminCmd.String("first", "", "Optional first name.")
	lastName := createAdminCmd.String("last", "", "Optional last name.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		command := args[2]
		if !migrateCommands[command] {
			return fmt.Errorf("%q: no such command", command)
		}
		return cli.migrate(command, cli.db, args[3:]...)
	case "createadmin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*email) == "" || strings.TrimSpace(*username) == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) < minPasswordLength {
			fmt.Fprintf(cli.out, "password must be at least %d characters\n", minPasswordLength)
			return errHelp
		}
		return cli.createAdmin(context.Background(), models.User{
			Username:  strings.TrimSpace(*username),
			Email:     strings.ToLower(strings.TrimSpace(*email)),
			FirstName: *firstName,
			LastName:  *lastName,
		}, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) createAdmin(ctx context.Context, user models.User, password string) error {
	exists, err := cli.users.ExistsByEmailOrUsername(ctx, user.Email, user.Username)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("a user with email %s or username %s already exists", user.Email, user.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.Role = models.RoleAdmin
	if err := cli.users.Create(ctx, &user); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "admin %s created with id %d\n", user.Username, user.ID)
	return nil
}
