package migrate

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/cmd/util"
	"github.com/mpapenbr/racetelemetry/pkg/config"
	dbMigrate "github.com/mpapenbr/racetelemetry/pkg/db/migrate"
	"github.com/mpapenbr/racetelemetry/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "creates or updates the schema of the postgres cache backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration()
		},
	}
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "shows the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := util.SetupLogger(); err != nil {
				return err
			}
			version, dirty, err := dbMigrate.Version(prepareURLForDB(config.DB))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %t\n", version, dirty)
			return nil
		},
	}
}

func startMigration() error {
	if err := util.SetupLogger(); err != nil {
		return err
	}
	if err := util.WaitForService("postgres", utils.ExtractFromDBURL(config.DB)); err != nil {
		return err
	}
	dbURL := prepareURLForDB(config.DB)
	if err := dbMigrate.MigrateDb(dbURL); err != nil {
		log.Error("migration failed", log.ErrorField(err))
		return err
	}
	version, _, err := dbMigrate.Version(dbURL)
	if err != nil {
		return err
	}
	log.Info("schema is up to date", log.Uint("version", version))
	return nil
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	}
	return fmt.Sprintf("%s?%s", url, options)
}
