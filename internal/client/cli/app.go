package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/taskboard/internal/client/authclient"
	"github.com/dmitrijs2005/taskboard/internal/client/config"
	"github.com/urfave/cli/v2"
)

const envKey = "env"

// AuthClient is the part of authclient.GRPCClient the commands use.
type AuthClient interface {
	Register(ctx context.Context, name, email string, password []byte) error
	Login(ctx context.Context, email string, password []byte) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*authclient.User, error)
	LogoutAll(ctx context.Context) (int64, error)
	ListSessions(ctx context.Context, offset, limit int) ([]authclient.Session, error)
	Ping(ctx context.Context) error
	Tokens() (string, string)
	SetTokens(accessToken, refreshToken string)
	Close() error
}

// newClient is a seam for tests.
var newClient = func(addr string) (AuthClient, error) {
	return authclient.New(addr)
}

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// env is the per-invocation state shared by commands.
type env struct {
	config *config.Config
	client AuthClient
	store  *authclient.FileStore
	reader *bufio.Reader
	out    io.Writer
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:  "taskboard",
		Usage: "taskboard account and session management",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			registerCommand(),
			loginCommand(),
			refreshCommand(),
			logoutCommand(),
			meCommand(),
			logoutAllCommand(),
			sessionsCommand(),
			pingCommand(),
		},
		Before: setup,
		After:  teardown,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a JSON or YAML config file",
			EnvVars: []string{"TASKBOARD_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"a"},
			Usage:   "auth server address (host:port)",
		},
		&cli.StringFlag{
			Name:  "session",
			Usage: "file holding the token pair",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-request timeout",
		},
	}
}

func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("server") {
		cfg.ServerEndpointAddr = c.String("server")
	}
	if c.IsSet("session") {
		cfg.SessionFile = c.String("session")
	}
	if c.IsSet("timeout") {
		cfg.RequestTimeout = c.Duration("timeout")
	}

	store := authclient.NewFileStore(cfg.SessionFile)
	tokens, err := store.Load()
	if err != nil {
		return err
	}

	client, err := newClient(cfg.ServerEndpointAddr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.ServerEndpointAddr, err)
	}
	client.SetTokens(tokens.AccessToken, tokens.RefreshToken)

	out := c.App.Writer
	if out == nil {
		out = os.Stdout
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[envKey] = &env{
		config: cfg,
		client: client,
		store:  store,
		reader: bufio.NewReader(c.App.Reader),
		out:    out,
	}
	return nil
}

func teardown(c *cli.Context) error {
	e, ok := c.App.Metadata[envKey].(*env)
	if !ok {
		return nil
	}
	return e.client.Close()
}

func getEnv(c *cli.Context) (*env, error) {
	e, ok := c.App.Metadata[envKey].(*env)
	if !ok {
		return nil, errors.New("cli not initialized")
	}
	return e, nil
}

// requestContext bounds one command by the configured timeout.
func (e *env) requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, e.config.RequestTimeout)
}

// persist writes the client's current token pair to the session file.
func (e *env) persist() error {
	access, refresh := e.client.Tokens()
	return e.store.Save(authclient.StoredTokens{AccessToken: access, RefreshToken: refresh})
}
