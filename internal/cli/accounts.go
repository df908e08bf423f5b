package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/recipekeeper/internal/services"
)

func (c *CLI) createUser(ctx context.Context, args []string) error {
	return c.create(ctx, "createuser", args, false)
}

func (c *CLI) createSuperuser(ctx context.Context, args []string) error {
	return c.create(ctx, "createsuperuser", args, true)
}

func (c *CLI) create(ctx context.Context, name string, args []string, superuser bool) error {
	fs := c.flagSet(name)
	email := fs.String("email", "", "account email")
	fullName := fs.String("name", "", "display name")
	staff := fs.Bool("staff", false, "grant staff status")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *email == "" {
		v, err := GetSimpleText(c.reader, "Email address:", c.out)
		if err != nil {
			return err
		}
		*email = v
	}

	password, err := GetNewPassword(c.out)
	if err != nil {
		return err
	}

	opts := []services.AccountOption{services.WithName(*fullName)}
	create := c.app.Accounts.CreateUser
	if superuser {
		create = c.app.Accounts.CreateSuperuser
	} else if *staff {
		opts = append(opts, services.WithStaff(true))
	}

	a, err := create(ctx, *email, password, opts...)
	if err != nil {
		return err
	}

	c.logger.Info(ctx, "account created", "account_id", a.ID, "superuser", a.IsSuperuser)
	if superuser {
		fmt.Fprintf(c.out, "Superuser %s created.\n", a)
	} else {
		fmt.Fprintf(c.out, "User %s created.\n", a)
	}
	return nil
}

func (c *CLI) changePassword(ctx context.Context, args []string) error {
	fs := c.flagSet("changepassword")
	email := fs.String("email", "", "account email")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"email": *email}); err != nil {
		return err
	}

	a, err := c.account(ctx, *email)
	if err != nil {
		return err
	}

	current, err := GetPassword("Current password: ", c.out)
	if err != nil {
		return err
	}
	next, err := GetNewPassword(c.out)
	if err != nil {
		return err
	}

	if err := c.app.Accounts.ChangePassword(ctx, a.ID, current, next); err != nil {
		return err
	}

	c.logger.Info(ctx, "password changed", "account_id", a.ID)
	fmt.Fprintf(c.out, "Password changed for %s.\n", a)
	return nil
}

func (c *CLI) deleteUser(ctx context.Context, args []string) error {
	fs := c.flagSet("deleteuser")
	email := fs.String("email", "", "account email")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"email": *email}); err != nil {
		return err
	}

	a, err := c.account(ctx, *email)
	if err != nil {
		return err
	}
	if err := c.app.Accounts.Delete(ctx, a.ID); err != nil {
		return err
	}

	c.logger.Info(ctx, "account deleted", "account_id", a.ID)
	fmt.Fprintf(c.out, "User %s deleted.\n", a)
	return nil
}

func (c *CLI) login(ctx context.Context, args []string) error {
	fs := c.flagSet("login")
	email := fs.String("email", "", "account email")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"email": *email}); err != nil {
		return err
	}

	password, err := GetPassword("Password: ", c.out)
	if err != nil {
		return err
	}

	tok, err := c.app.Accounts.Authenticate(ctx, *email, password)
	if err != nil {
		c.logger.Warn(ctx, "login rejected", "email", *email)
		return err
	}

	fmt.Fprintln(c.out, tok.AccessToken)
	return nil
}

func (c *CLI) whoami(ctx context.Context, args []string) error {
	fs := c.flagSet("whoami")
	token := fs.String("token", "", "access token")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, map[string]string{"token": *token}); err != nil {
		return err
	}

	a, err := c.app.Accounts.Identify(ctx, *token)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s staff=%t superuser=%t\n", a, a.IsStaff, a.IsSuperuser)
	return nil
}
