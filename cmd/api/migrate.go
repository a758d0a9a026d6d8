package main

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"
	"go-toolchat/internal/config"
	"go-toolchat/internal/store/postgres"
)

func migrateCMD() *cobra.Command {
	var direction string
	var steps int

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres session schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}
			if cfg.Storage.Postgres.URL == "" {
				return goerr.New("storage.postgres.url is not configured")
			}
			return postgres.Migrate(cfg.Storage.Postgres.URL, direction, steps)
		},
	}
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	return migrate
}
