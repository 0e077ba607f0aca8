package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var configFile string

var rootCmd = &cobra.Command{
	Use:   "scapagent",
	Short: "Remote SCAP compliance scanning agent",
	Long: `scapagent locates SCAP benchmark content, evaluates the host with oscap,
summarises the XCCDF results and reports them to a compliance collector.

Configuration is read from scapagent.yaml (./ or /etc/scapagent/), overridden by
SCAPAGENT_* environment variables and the legacy COMPLIANCE_API_URL,
COMPLIANCE_API_TOKEN, SCAN_INTERVAL, DEFAULT_PROFILE, AGENT_PORT and
CONTENT_PATH variables.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to scapagent.yaml")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(datastreamCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(spoolCmd)
	rootCmd.AddCommand(configCmd)
}
