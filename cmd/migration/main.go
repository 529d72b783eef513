package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/sportscorex/internal/app"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
	"github.com/spf13/cobra"
)

var logger = logging.NewJSON(logging.LevelInfo).With("component", "migration")

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		logger.Error("migration failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migration",
		Short:         "Manage the score cache schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
				if err := ignoreNoChange(m.Up()); err != nil {
					return err
				}
				logger.Info("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations, one by default",
			Args:  cobra.MaximumNArgs(1),
			RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
				steps, err := parseSteps(args)
				if err != nil {
					return err
				}
				if err := ignoreNoChange(m.Steps(-steps)); err != nil {
					return err
				}
				logger.Info("migrations rolled back", "steps", steps)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Println("version: none")
					fmt.Println("dirty: false")
					return nil
				}
				if err != nil {
					return fmt.Errorf("read version: %w", err)
				}
				fmt.Printf("version: %d\n", version)
				fmt.Printf("dirty: %t\n", dirty)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
				version, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				if err := m.Force(version); err != nil {
					return fmt.Errorf("force version %d: %w", version, err)
				}
				logger.Info("schema version forced", "version", version)
				return nil
			}),
		},
		&cobra.Command{
			Use:     "goto <version>",
			Aliases: []string{"migrate"},
			Short:   "Migrate up or down to a target version",
			Args:    cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
				target, err := parseTarget(args[0])
				if err != nil {
					return err
				}
				if err := ignoreNoChange(m.Migrate(target)); err != nil {
					return err
				}
				logger.Info("migrated", "version", target)
				return nil
			}),
		},
	)

	return root
}

func withMigrator(fn func(m *migrate.Migrate, args []string) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		m, err := openMigrator()
		if err != nil {
			return err
		}
		defer closeMigrator(m)
		return fn(m, args)
	}
}

func openMigrator() (*migrate.Migrate, error) {
	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return nil, errors.New("DB_URL is required")
	}
	dbURL = app.NormalizeDBURL(dbURL, envBool("DB_DISABLE_PREPARED_BINARY_RESULT"))

	dir, err := resolveMigrationsDir()
	if err != nil {
		return nil, err
	}

	sourceURL := "file://" + filepath.ToSlash(dir)
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	logger.Info("migrator ready", "source", sourceURL)
	return m, nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	return err
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source failed", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration db failed", "error", dbErr)
	}
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, errors.New("down steps must be > 0")
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, errors.New("version must be >= 0")
	}
	return value, nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./db/migrations",
		"/app/db/migrations",
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", errors.New("migration directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}

func envBool(key string) bool {
	ok, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && ok
}
