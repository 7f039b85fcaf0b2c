// Package config loads server settings from flags, the environment and an
// optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/erazemk/rigasset/internal/db"
)

// Config holds the server settings.
type Config struct {
	Driver    string
	DB        string
	Addr      string
	AdminUser string
	LogPath   string
	JWTSecret string
	TokenTTL  time.Duration
}

// Environment variables that provide flag defaults.
const (
	EnvDriver    = "RIGASSET_DB_DRIVER"
	EnvDB        = "RIGASSET_DB"
	EnvAddr      = "RIGASSET_ADDR"
	EnvAdminUser = "RIGASSET_ADMIN_USER"
	EnvLog       = "RIGASSET_LOG"
	EnvJWTSecret = "RIGASSET_JWT_SECRET"
	EnvTokenTTL  = "RIGASSET_TOKEN_TTL"
)

const usage = `Usage: rigasset [flags]

Flags:
  -driver <name>          database driver: sqlite or postgres (default: sqlite)
  -d, -db <dsn>           SQLite path or Postgres DSN (default: rigasset.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -jwt-secret <secret>    token signing secret (default: generated and stored in the database)
  -token-ttl <duration>   access token lifetime (default: 12h)
  -h, -help               show this help and exit

Every flag can also be set through the environment (RIGASSET_DB_DRIVER,
RIGASSET_DB, RIGASSET_ADDR, RIGASSET_ADMIN_USER, RIGASSET_LOG,
RIGASSET_JWT_SECRET, RIGASSET_TOKEN_TTL) or a .env file in the working
directory. Flags win over the environment.
`

// Load reads envFiles (default ".env", missing files are skipped) and then
// parses args on top of the environment. It returns flag.ErrHelp when help
// was requested.
func Load(args []string, out io.Writer, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	ttl := 12 * time.Hour
	if v := os.Getenv(EnvTokenTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", EnvTokenTTL, err)
		}
		ttl = d
	}

	cfg := &Config{}
	flags := flag.NewFlagSet("rigasset", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() { fmt.Fprint(out, usage) }

	flags.StringVar(&cfg.Driver, "driver", env(EnvDriver, db.DriverSQLite), "")

	dbDefault := env(EnvDB, "rigasset.sqlite3")
	flags.StringVar(&cfg.DB, "db", dbDefault, "")
	flags.StringVar(&cfg.DB, "d", dbDefault, "")

	addrDefault := env(EnvAddr, ":8080")
	flags.StringVar(&cfg.Addr, "addr", addrDefault, "")
	flags.StringVar(&cfg.Addr, "a", addrDefault, "")

	userDefault := env(EnvAdminUser, "admin")
	flags.StringVar(&cfg.AdminUser, "user", userDefault, "")
	flags.StringVar(&cfg.AdminUser, "u", userDefault, "")

	logDefault := env(EnvLog, "")
	flags.StringVar(&cfg.LogPath, "log", logDefault, "")
	flags.StringVar(&cfg.LogPath, "l", logDefault, "")

	flags.StringVar(&cfg.JWTSecret, "jwt-secret", env(EnvJWTSecret, ""), "")
	flags.DurationVar(&cfg.TokenTTL, "token-ttl", ttl, "")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		flags.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if c.DB == "" {
		return errors.New("database path or DSN is required")
	}
	if c.AdminUser == "" {
		return errors.New("admin username is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	return nil
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
