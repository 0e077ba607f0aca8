package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lucasnoah/scapagent/internal/fileutil"
	"github.com/lucasnoah/scapagent/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		datastream, _ := cmd.Flags().GetString("datastream")
		doReport, _ := cmd.Flags().GetBool("report")
		output, _ := cmd.Flags().GetString("output")

		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		client := newReporter(cfg, log)
		if doReport && client == nil {
			return errors.New("--report needs reporter.api_url")
		}

		executor := newExecutor(cfg, log)
		if !executor.Available() {
			log.Warn("scanner binary not found; the result will be a mock", zap.String("binary", executor.Binary()))
		}
		res := newOrchestrator(cfg, log, executor).PerformScan(cmd.Context(), scan.Request{
			Profile:    profile,
			Datastream: datastream,
		})

		if output != "" {
			if err := fileutil.WriteJSON(output, res); err != nil {
				return err
			}
		}
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))

		if doReport {
			if err := client.Submit(cmd.Context(), res); err != nil {
				return fmt.Errorf("report scan %s: %w", res.ScanID, err)
			}
		}
		if res.Status == scan.StatusFailed {
			return fmt.Errorf("scan %s failed: %s", res.ScanID, res.Error)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().String("profile", "", "XCCDF profile id (default agent.default_profile)")
	scanCmd.Flags().String("datastream", "", "datastream file name or absolute path (default auto-detect)")
	scanCmd.Flags().Bool("report", false, "submit the result to the collector")
	scanCmd.Flags().StringP("output", "o", "", "also write the result JSON to this file")
}
