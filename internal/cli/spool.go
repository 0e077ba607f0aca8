package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/scapagent/internal/agent"
	"github.com/lucasnoah/scapagent/internal/config"
	"github.com/lucasnoah/scapagent/internal/spool"
)

var spoolCmd = &cobra.Command{
	Use:   "spool",
	Short: "Inspect and flush the undelivered report outbox",
}

func requireSpool(cfg *config.Config) (*spool.DB, error) {
	db, err := openSpool(cfg)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, errors.New("reporter.spool_path is not set")
	}
	return db, nil
}

var spoolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := requireSpool(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.Pending(0)
		if err != nil {
			return err
		}

		if format == "json" {
			type row struct {
				ScanID    string `json:"scan_id"`
				Status    string `json:"status"`
				Attempts  int    `json:"attempts"`
				LastError string `json:"last_error,omitempty"`
				CreatedAt string `json:"created_at"`
			}
			rows := make([]row, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, row{e.ScanID, e.Status, e.Attempts, e.LastError, e.CreatedAt})
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}

		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Outbox is empty")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCAN\tSTATUS\tATTEMPTS\tQUEUED\tLAST ERROR")
		for _, e := range entries {
			lastErr := e.LastError
			if len(lastErr) > 60 {
				lastErr = lastErr[:57] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", e.ScanID, e.Status, e.Attempts, e.CreatedAt, lastErr)
		}
		return w.Flush()
	},
}

var spoolFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Resubmit queued reports to the collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		client := newReporter(cfg, log)
		if client == nil {
			return errors.New("reporter.api_url is not set")
		}
		db, err := requireSpool(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		a := agent.New(nil, agent.WithReporter(client), agent.WithOutbox(db), agent.WithLogger(log))
		delivered, err := a.FlushOutbox(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "Delivered %d report(s)\n", delivered)
		return err
	},
}

func init() {
	spoolListCmd.Flags().String("format", "table", "Output format: table or json")
	spoolCmd.AddCommand(spoolListCmd)
	spoolCmd.AddCommand(spoolFlushCmd)
}
