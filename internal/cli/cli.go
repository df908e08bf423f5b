package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/dmitrijs2005/recipekeeper/internal/app"
	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/dmitrijs2005/recipekeeper/internal/logging"
	"github.com/dmitrijs2005/recipekeeper/internal/models"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage error")

type command struct {
	summary string
	run     func(c *CLI, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"migrate":         {"apply database migrations", (*CLI).migrate},
	"createuser":      {"create an account", (*CLI).createUser},
	"createsuperuser": {"create a staff superuser", (*CLI).createSuperuser},
	"changepassword":  {"change an account password", (*CLI).changePassword},
	"deleteuser":      {"delete an account and everything it owns", (*CLI).deleteUser},
	"login":           {"check credentials and print an access token", (*CLI).login},
	"whoami":          {"print the account an access token belongs to", (*CLI).whoami},
	"addtag":          {"create a tag", (*CLI).addTag},
	"listtags":        {"list tags", (*CLI).listTags},
	"addrecipe":       {"create a recipe", (*CLI).addRecipe},
	"listrecipes":     {"list recipes, newest first", (*CLI).listRecipes},
	"uploadimage":     {"upload a recipe image", (*CLI).uploadImage},
	"imageurl":        {"print a download URL for a recipe image", (*CLI).imageURL},
}

// CLI runs management commands against an App.
type CLI struct {
	app    *app.App
	reader *bufio.Reader
	out    io.Writer
	logger logging.Logger
}

func New(a *app.App, in io.Reader, out io.Writer) *CLI {
	return &CLI{app: a, reader: bufio.NewReader(in), out: out, logger: a.Logger}
}

// Run executes the named command with its arguments.
func (c *CLI) Run(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		Usage(c.out)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}

	logger := c.logger
	c.logger = logger.With("command", name)
	defer func() { c.logger = logger }()

	c.logger.Debug(ctx, "command started")
	if err := cmd.run(c, ctx, args); err != nil {
		c.logger.Error(ctx, "command failed", "error", err)
		return err
	}
	return nil
}

// Usage lists the available commands.
func Usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: manage [-c config.json] [-d dsn] [-l level] <command> [flags]")
	fmt.Fprintln(w, "commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, commands[name].summary)
	}
}

func (c *CLI) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func required(fs *flag.FlagSet, values map[string]string) error {
	for name, v := range values {
		if v == "" {
			return fmt.Errorf("%w: %s requires -%s", ErrUsage, fs.Name(), name)
		}
	}
	return nil
}

// account resolves the account acting in a command.
func (c *CLI) account(ctx context.Context, email string) (*models.Account, error) {
	a, err := c.app.Accounts.GetByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("no account with email %s: %w", email, err)
	}
	return a, err
}

func (c *CLI) migrate(ctx context.Context, args []string) error {
	fs := c.flagSet("migrate")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.app.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Migrations applied.")
	return nil
}
