package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/dmitrijs2005/taskboard/internal/flagx"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. TASKBOARD_JWT_SECRET.
const EnvPrefix = "TASKBOARD"

// parseFile overlays values from the file named by -c/-config (JSON or YAML,
// chosen by extension) and from TASKBOARD_* environment variables.
//
// Keys:
//
//	grpc_addr, metrics_addr, database_dsn,
//	jwt_secret, jwt_algorithm, jwt_issuer, access_token_ttl, refresh_token_ttl,
//	password_algorithm, argon2_time, argon2_memory_kib, argon2_threads, bcrypt_cost,
//	log_backend, log_level, log_pretty
//
// Durations accept Go syntax ("15m", "720h"). An unreadable file panics, as
// does an argon2_threads value that does not fit in a byte.
func parseFile(config *Config) {
	v := newViper(config)

	if path := flagx.ConfigFileFlag(); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			panic(err)
		}
	}

	config.EndpointAddrGRPC = v.GetString("grpc_addr")
	config.MetricsAddr = v.GetString("metrics_addr")
	config.DatabaseDSN = v.GetString("database_dsn")

	config.JWTSecret = v.GetString("jwt_secret")
	config.JWTAlgorithm = strings.ToUpper(v.GetString("jwt_algorithm"))
	config.JWTIssuer = v.GetString("jwt_issuer")
	config.AccessTokenTTL = v.GetDuration("access_token_ttl")
	config.RefreshTokenTTL = v.GetDuration("refresh_token_ttl")

	config.PasswordAlgorithm = strings.ToLower(v.GetString("password_algorithm"))
	config.Argon2Time = v.GetUint32("argon2_time")
	config.Argon2MemoryKiB = v.GetUint32("argon2_memory_kib")
	threads := v.GetUint("argon2_threads")
	if threads > math.MaxUint8 {
		panic(fmt.Errorf("argon2_threads %d exceeds %d", threads, math.MaxUint8))
	}
	config.Argon2Threads = uint8(threads)
	config.BcryptCost = v.GetInt("bcrypt_cost")

	config.LogBackend = v.GetString("log_backend")
	config.LogLevel = v.GetString("log_level")
	config.LogPretty = v.GetBool("log_pretty")
}

// newViper seeds a viper instance with the current values so that keys absent
// from both file and environment keep them.
func newViper(c *Config) *viper.Viper {
	v := viper.New()

	v.SetDefault("grpc_addr", c.EndpointAddrGRPC)
	v.SetDefault("metrics_addr", c.MetricsAddr)
	v.SetDefault("database_dsn", c.DatabaseDSN)

	v.SetDefault("jwt_secret", c.JWTSecret)
	v.SetDefault("jwt_algorithm", c.JWTAlgorithm)
	v.SetDefault("jwt_issuer", c.JWTIssuer)
	v.SetDefault("access_token_ttl", c.AccessTokenTTL)
	v.SetDefault("refresh_token_ttl", c.RefreshTokenTTL)

	v.SetDefault("password_algorithm", c.PasswordAlgorithm)
	v.SetDefault("argon2_time", c.Argon2Time)
	v.SetDefault("argon2_memory_kib", c.Argon2MemoryKiB)
	v.SetDefault("argon2_threads", c.Argon2Threads)
	v.SetDefault("bcrypt_cost", c.BcryptCost)

	v.SetDefault("log_backend", c.LogBackend)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("log_pretty", c.LogPretty)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}
