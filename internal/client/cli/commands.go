package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/urfave/cli/v2"
)

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "display name"},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "account email"},
		},
		Action: register,
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with email and password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "account email"},
		},
		Action: login,
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:   "refresh",
		Usage:  "Get a new access token with the stored refresh token",
		Action: refresh,
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Revoke this session",
		Action: logout,
	}
}

func meCommand() *cli.Command {
	return &cli.Command{
		Name:   "me",
		Usage:  "Show the signed-in account",
		Action: me,
	}
}

func logoutAllCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout-all",
		Usage:  "Revoke every session of the account",
		Action: logoutAll,
	}
}

func sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List sessions of the account, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "offset", Value: 0, Usage: "number of sessions to skip"},
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "page size (max 100)"},
		},
		Action: sessions,
	}
}

func pingCommand() *cli.Command {
	return &cli.Command{
		Name:   "ping",
		Usage:  "Check that the server is reachable",
		Action: ping,
	}
}

// promptIfEmpty returns value, or asks for it when empty.
func (e *env) promptIfEmpty(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return getSimpleText(e.reader, prompt, e.out)
}

func register(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	name, err := e.promptIfEmpty(c.String("name"), "Enter name")
	if err != nil {
		return err
	}
	email, err := e.promptIfEmpty(c.String("email"), "Enter email")
	if err != nil {
		return err
	}

	password, err := getPassword(e.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := e.requestContext(c)
	defer cancel()

	if err := e.client.Register(ctx, name, email, password); err != nil {
		return err
	}
	if err := e.persist(); err != nil {
		return err
	}

	fmt.Fprintln(e.out, "Registered and signed in.")
	return nil
}

func login(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	email, err := e.promptIfEmpty(c.String("email"), "Enter email")
	if err != nil {
		return err
	}

	password, err := getPassword(e.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := e.requestContext(c)
	defer cancel()

	if err := e.client.Login(ctx, email, password); err != nil {
		return err
	}
	if err := e.persist(); err != nil {
		return err
	}

	fmt.Fprintln(e.out, "Signed in.")
	return nil
}

func refresh(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	ctx, cancel := e.requestContext(c)
	defer cancel()

	if err := e.client.Refresh(ctx); err != nil {
		return err
	}
	if err := e.persist(); err != nil {
		return err
	}

	fmt.Fprintln(e.out, "Access token renewed.")
	return nil
}

func logout(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	ctx, cancel := e.requestContext(c)
	defer cancel()

	if err := e.client.Logout(ctx); err != nil {
		return err
	}
	if err := e.store.Clear(); err != nil {
		return err
	}

	fmt.Fprintln(e.out, "Signed out.")
	return nil
}

func me(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	ctx, cancel := e.requestContext(c)
	defer cancel()

	u, err := e.client.Me(ctx)
	if err != nil {
		return err
	}
	// the access token may have been renewed
	if err := e.persist(); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "ID:      %s\nName:    %s\nEmail:   %s\nCreated: %s\n",
		u.ID, u.Name, u.Email, u.CreatedAt.Format(time.RFC3339))
	return nil
}

func logoutAll(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	ctx, cancel := e.requestContext(c)
	defer cancel()

	n, err := e.client.LogoutAll(ctx)
	if err != nil {
		return err
	}
	if err := e.store.Clear(); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "Revoked %d session(s).\n", n)
	return nil
}

func sessions(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	ctx, cancel := e.requestContext(c)
	defer cancel()

	list, err := e.client.ListSessions(ctx, c.Int("offset"), c.Int("limit"))
	if err != nil {
		return err
	}
	if err := e.persist(); err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(e.out, "No sessions.")
		return nil
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tEXPIRES\tSTATUS")
	now := time.Now()
	for _, s := range list {
		state := "active"
		switch {
		case s.Revoked:
			state = "revoked"
		case !now.Before(s.ExpiresAt):
			state = "expired"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.CreatedAt.Format(time.RFC3339), s.ExpiresAt.Format(time.RFC3339), state)
	}
	return tw.Flush()
}

func ping(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	ctx, cancel := e.requestContext(c)
	defer cancel()

	if err := e.client.Ping(ctx); err != nil {
		return err
	}

	fmt.Fprintln(e.out, "OK")
	return nil
}
