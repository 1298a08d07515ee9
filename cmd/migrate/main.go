package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"alterstory-server/pkg/database"
	"alterstory-server/pkg/migration"
	"alterstory-server/shared/utils"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// config - настройки утилиты миграций.
type config struct {
	DBHost    string `env:"DB_HOST" env-required:"true"`
	DBPort    string `env:"DB_PORT" env-default:"5432"`
	DBUser    string `env:"DB_USER" env-required:"true"`
	DBName    string `env:"DB_NAME" env-required:"true"`
	DBSSLMode string `env:"DB_SSL_MODE" env-default:"disable"`
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
}

const usage = `Usage: migrate <command> [arg]

Commands:
  up               apply all pending migrations
  down [steps]     roll back the given number of migrations (all if omitted)
  version          print the current schema version
  force <version>  set the schema version without running migrations
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	var cfg config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	initLogger(cfg.LogLevel)

	password, err := utils.ReadSecret("db_password")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read db password")
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser, password, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, database.Config{
		DSN:        dsn,
		MaxConns:   2,
		MaxRetries: 10,
		RetryDelay: 3 * time.Second,
		OnRetry: func(attempt int, err error) {
			log.Warn().Err(err).Int("attempt", attempt).Msg("postgres is not ready, retrying")
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	migrator := migration.NewMigrator(migration.Config{}, pool)
	if err := run(migrator, flag.Arg(0), flag.Arg(1)); err != nil {
		log.Error().Err(err).Str("command", flag.Arg(0)).Msg("migration command failed")
		pool.Close()
		os.Exit(1)
	}
}

func run(m *migration.Migrator, command, arg string) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		steps := 0
		if arg != "" {
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid steps %q", arg)
			}
			steps = n
		}
		return m.Down(steps)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("current schema version")
		return nil
	case "force":
		version, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", arg)
		}
		return m.ForceVersion(uint(version))
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func initLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
