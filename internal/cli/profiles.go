package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/scapagent/internal/scan"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the well-known benchmark profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE")
		for _, p := range scan.KnownProfiles() {
			fmt.Fprintf(w, "%s\t%s\n", p.ID, p.Title)
		}
		return w.Flush()
	},
}
