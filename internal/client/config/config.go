package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/client/authclient"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. TASKBOARD_CLI_SERVER_ADDR.
const EnvPrefix = "TASKBOARD_CLI"

// Config holds runtime settings for the taskboard CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the auth gRPC endpoint.
//   - SessionFile: where the token pair is kept between invocations.
//   - RequestTimeout: deadline applied to every RPC.
type Config struct {
	ServerEndpointAddr string
	SessionFile        string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionFile = authclient.DefaultSessionPath()
	c.RequestTimeout = 10 * time.Second
}

// Load applies defaults, then the file at path (skipped when empty), then the
// environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	v := viper.New()
	v.SetDefault("server_addr", cfg.ServerEndpointAddr)
	v.SetDefault("session_file", cfg.SessionFile)
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.ServerEndpointAddr = v.GetString("server_addr")
	cfg.SessionFile = v.GetString("session_file")
	cfg.RequestTimeout = v.GetDuration("request_timeout")

	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}
