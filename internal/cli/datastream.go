package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/scapagent/internal/content"
)

var datastreamCmd = &cobra.Command{
	Use:   "datastream",
	Short: "Inspect SCAP datastream content",
}

var datastreamDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Print the datastream matching this host's os-release",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("os-release")
		if path == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = cfg.Content.OSReleasePath
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read os-release: %w", err)
		}
		name, ok := content.DetectDatastream(string(data))
		if !ok {
			return fmt.Errorf("no known datastream for %s", path)
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

var datastreamResolveCmd = &cobra.Command{
	Use:   "resolve [name]",
	Short: "Resolve a datastream name to a file, fetching content if needed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		ref, err := newLocator(cfg, log).Resolve(cmd.Context(), name)
		if errors.Is(err, content.ErrNotFound) {
			return fmt.Errorf("%w: searched %v", err, cfg.SearchRoots())
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ref.Path)
		return nil
	},
}

var datastreamListCmd = &cobra.Command{
	Use:   "list",
	Short: "List datastreams present in the search roots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		refs := newLocator(cfg, log).Available()
		if len(refs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No datastreams found")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPATH")
		for _, ref := range refs {
			fmt.Fprintf(w, "%s\t%s\n", ref.Name, ref.Path)
		}
		return w.Flush()
	},
}

func init() {
	datastreamDetectCmd.Flags().String("os-release", "", "os-release file (default content.os_release_path)")
	datastreamCmd.AddCommand(datastreamDetectCmd)
	datastreamCmd.AddCommand(datastreamResolveCmd)
	datastreamCmd.AddCommand(datastreamListCmd)
}
