package cli

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/yourusername/contest-api/pkg/database"
)

// newMigrateCmd управляет миграциями схемы
func newMigrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(*configPath, func(m *migrateV4.Migrate) error {
				if err := m.Up(); err != nil && !errors.Is(err, migrateV4.ErrNoChange) {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be positive")
			}
			return withMigrator(*configPath, func(m *migrateV4.Migrate) error {
				if err := m.Steps(-steps); err != nil && !errors.Is(err, migrateV4.ErrNoChange) {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the migration version and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return withMigrator(*configPath, func(m *migrateV4.Migrate) error {
				log.Printf("[contestctl] Принудительная установка версии миграций %d", version)
				if err := m.Force(version); err != nil {
					return fmt.Errorf("failed to force version: %w", err)
				}
				return printVersion(cmd, m)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(*configPath, func(m *migrateV4.Migrate) error {
				return printVersion(cmd, m)
			})
		},
	})

	return cmd
}

func withMigrator(configPath string, fn func(m *migrateV4.Migrate) error) error {
	cfg, db, err := openDB(configPath)
	if err != nil {
		return err
	}
	m, err := database.NewMigrator(db, cfg.Database.MigrationsPath)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Printf("[contestctl] Ошибка закрытия migrate: source=%v db=%v", srcErr, dbErr)
		}
	}()
	return fn(m)
}

func printVersion(cmd *cobra.Command, m *migrateV4.Migrate) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrateV4.ErrNilVersion) {
		cmd.Println("no migrations applied")
		return nil
	}
	if err != nil {
		return err
	}
	cmd.Printf("version %d (dirty: %t)\n", version, dirty)
	return nil
}
