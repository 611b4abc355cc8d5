package main

import (
	"github.com/spf13/cobra"

	"marathon/internal/platform/config"
	"marathon/internal/registration/seed"
	"marathon/internal/registration/store"
)

var seedFile string

// seedCmd writes race definitions to the durable store. Existing races keep
// their counters.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert races from a YAML file into the database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(envFile, configFile)
		if err != nil {
			return err
		}
		path := seedFile
		if path == "" {
			path = cfg.Fallback.SeedFile
		}
		races, err := seed.LoadFile(path)
		if err != nil {
			return err
		}

		db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := seed.Apply(cmd.Context(), store.NewPostgres(db), races); err != nil {
			return err
		}
		cmd.Printf("seeded %d race(s) from %s\n", len(races), path)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed file (defaults to fallback.seed_file)")
}
