package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aben18/enroll/internal/config"
	"github.com/aben18/enroll/internal/directory/sqlite"
)

var saveConfigFlag bool

// demo directory contents: a handful of organizations plus contacts whose
// emails exercise the lookup-by-email path.
var seedOrgs = []struct {
	name     string
	contacts [][4]string // first, last, email, job title
}{
	{
		name: "Acme Corporation",
		contacts: [][4]string{
			{"Jane", "Doe", "jane.doe@acme.example", "Purchasing Manager"},
			{"Sam", "Lee", "sam.lee@acme.example", "Engineer"},
		},
	},
	{
		name: "Globex Industries",
		contacts: [][4]string{
			{"Hank", "Scorpio", "hank@globex.example", "CEO"},
		},
	},
	{name: "Initech"},
	{name: "Umbrella Health"},
	{name: "Stark Analytics"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo directory database",
	Long: `Create the directory database and fill it with demo organizations
and contacts. Safe to run against an existing database; demo records are
added alongside whatever is already there.

Examples:
  enroll seed
  enroll seed --db /tmp/directory.db
  enroll seed --save-config   # record the db path in the config file`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := resolveDBPath()
		store, err := sqlite.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening directory database: %w", err)
		}
		defer func() { _ = store.Close() }()

		ctx := context.Background()
		var orgCount, contactCount int
		for _, seed := range seedOrgs {
			id, err := store.CreateOrganization(ctx, seed.name)
			if err != nil {
				return fmt.Errorf("seeding organization %q: %w", seed.name, err)
			}
			orgCount++

			for _, c := range seed.contacts {
				if err := store.AddContact(ctx, id, c[0], c[1], c[2], c[3]); err != nil {
					return fmt.Errorf("seeding contact %q: %w", c[2], err)
				}
				contactCount++
			}
		}

		fmt.Printf("Seeded %d organizations and %d contacts at %s\n", orgCount, contactCount, dbPath)

		if saveConfigFlag {
			if err := config.SaveDBPath(configFilePath(), dbPath); err != nil {
				return fmt.Errorf("saving db path to config: %w", err)
			}
			fmt.Printf("Recorded db_path in %s\n", configFilePath())
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&saveConfigFlag, "save-config", false,
		"record the database path in the config file")
	rootCmd.AddCommand(seedCmd)
}
