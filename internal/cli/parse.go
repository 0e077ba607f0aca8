package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/scapagent/internal/xccdf"
)

var parseCmd = &cobra.Command{
	Use:   "parse <results.xml>",
	Short: "Summarise an existing XCCDF or ARF results file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := xccdf.ParseFile(args[0])
		if err != nil {
			return err
		}
		rules, _ := cmd.Flags().GetBool("rules")
		if !rules {
			summary.Rules = nil
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	parseCmd.Flags().Bool("rules", false, "include per-rule results")
}
