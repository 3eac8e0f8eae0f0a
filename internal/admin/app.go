package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/dmitrijs2005/foodable/internal/server/jobs"
	"github.com/dmitrijs2005/foodable/internal/server/models"
	"github.com/dmitrijs2005/foodable/internal/server/validation"
)

const usage = `usage: foodable-admin [-c config.yaml] <command>

commands:
  migrate        apply pending database migrations
  create-user    create a user account (prompts for the password)
  purge-tokens   delete expired refresh tokens
`

var ErrUnknownCommand = errors.New("unknown command")

// Registrar creates user accounts.
type Registrar interface {
	Register(ctx context.Context, username, email, password string) (*models.PublicUser, error)
}

// Backend is what the commands run against. Migrations are applied while it
// is built, so migrate only needs to report success.
type Backend struct {
	Users  Registrar
	Tokens jobs.TokenPurger
}

type App struct {
	in      *bufio.Reader
	out     io.Writer
	logger  logging.Logger
	backend func(ctx context.Context) (*Backend, func(), error)
}

// NewApp builds the CLI. connect opens the database and returns the backend
// and a function releasing it.
func NewApp(in io.Reader, out io.Writer, logger logging.Logger, connect func(ctx context.Context) (*Backend, func(), error)) *App {
	return &App{in: bufio.NewReader(in), out: out, logger: logger, backend: connect}
}

func (a *App) Usage() string { return usage }

// Run executes the command named by the first non-flag argument.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd := command(args)
	switch cmd {
	case "migrate", "create-user", "purge-tokens":
	case "", "help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, cmd)
	}

	b, release, err := a.backend(ctx)
	if err != nil {
		return err
	}
	defer release()

	switch cmd {
	case "migrate":
		fmt.Fprintln(a.out, "Migrations applied.")
		return nil
	case "create-user":
		return a.createUser(ctx, b.Users)
	default:
		n, err := jobs.PurgeExpiredTokens(ctx, b.Tokens, a.logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted %d expired refresh tokens.\n", n)
		return nil
	}
}

// command returns the first argument that is neither a flag nor a flag value.
func command(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			return arg
		}
		if !strings.Contains(arg, "=") && i+1 < len(args) {
			i++
		}
	}
	return ""
}

type newUser struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,max=255,email"`
	Password string `json:"password" validate:"required,min=8,strongpassword"`
}

func (a *App) createUser(ctx context.Context, users Registrar) error {
	username, err := GetSimpleText(a.in, "Username", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.in, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	confirm, err := GetPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	u := newUser{Username: username, Email: validation.NormalizeEmail(email), Password: password}
	if err := validation.Struct(&u); err != nil {
		return describe(err)
	}

	created, err := users.Register(ctx, u.Username, u.Email, u.Password)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "Created user %s (id %d).\n", created.Username, created.ID)
	return nil
}

// describe flattens an apperr.Error with field errors into one message.
func describe(err error) error {
	ae, ok := apperr.As(err)
	if !ok {
		return err
	}
	if len(ae.Fields) == 0 {
		return errors.New(ae.Message)
	}
	parts := make([]string, 0, len(ae.Fields))
	for _, f := range ae.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Errorf("%s: %s", ae.Message, strings.Join(parts, "; "))
}
