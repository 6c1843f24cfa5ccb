package main

import (
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/iota-freight/modules/freight"
	"github.com/iota-uz/iota-freight/pkg/application"
	"github.com/iota-uz/iota-freight/pkg/configuration"
	"github.com/iota-uz/iota-freight/pkg/logging"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|status]",
		Short:     "Apply or inspect the freight schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}

			conf := configuration.Use()
			pool, err := connectDB(cmd.Context(), conf)
			if err != nil {
				return err
			}
			defer pool.Close()

			db := stdlib.OpenDBFromPool(pool)
			defer db.Close()

			migrations := application.NewMigrationManager(logging.ConsoleLogger(conf.LogrusLogLevel()))
			migrations.RegisterSchema(&freight.MigrationFiles)

			if direction == "status" {
				return withCode(exitDB, errors.Wrap(migrations.Status(cmd.Context(), db), "migration status"))
			}
			if err := migrations.Run(cmd.Context(), db); err != nil {
				return withCode(exitDB, errors.Wrap(err, "apply migrations"))
			}
			return writeJSONLine(map[string]string{"command": "migrate", "status": "ok"})
		},
	}
	return cmd
}
