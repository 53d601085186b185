package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/config"
	"github.com/stemsi/minilms-backend/internal/logger"
)

func main() {
	var migrationDir string
	flag.StringVar(&migrationDir, "path", "migrations", "Path to migration files")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+migrationDir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed to initialize")
	}
	defer m.Close()
	m.Log = migrateLogger{log: log}

	if err := run(m, args); err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("Migration failed")
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info().Msg("No migrations applied")
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to read migration version")
	default:
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migration state")
	}
}

// run executes one command. "up" and "down" take an optional step count.
func run(m *migrate.Migrate, args []string) error {
	switch args[0] {
	case "up":
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid step count %q", args[1])
			}
			return ignoreNoChange(m.Steps(n))
		}
		return ignoreNoChange(m.Up())
	case "down":
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid step count %q", args[1])
			}
			return ignoreNoChange(m.Steps(-n))
		}
		return ignoreNoChange(m.Down())
	case "version":
		return nil
	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		return m.Force(v)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// migrateLogger adapts zerolog to migrate.Logger.
type migrateLogger struct {
	log zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Info().Msgf(format, v...)
}

func (l migrateLogger) Verbose() bool { return false }

func printUsage() {
	fmt.Println("Usage: migrate [flags] <command>")
	fmt.Println("Commands: up [N], down [N], version, force <version>")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
