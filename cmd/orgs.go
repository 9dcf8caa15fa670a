package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aben18/enroll/internal/directory/sqlite"
)

var orgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "List organizations in the directory",
	Long: `List every organization in the directory database with its id.

Useful for checking what the form's organization search will find.

Examples:
  enroll orgs
  enroll orgs --db /path/to/directory.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.Open(resolveDBPath())
		if err != nil {
			return fmt.Errorf("opening directory database: %w", err)
		}
		defer func() { _ = store.Close() }()

		orgs, err := store.ListOrganizations(context.Background())
		if err != nil {
			return fmt.Errorf("listing organizations: %w", err)
		}

		if len(orgs) == 0 {
			fmt.Println("No organizations found. Run 'enroll seed' to create demo data.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, org := range orgs {
			fmt.Fprintf(w, "%s\t%s\n", org.ID, org.Name)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(orgsCmd)
}
