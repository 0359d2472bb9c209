package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	historyLimit     int
	historyPruneDays int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune price history snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		snaps, err := st.ListSnapshots(cmd.Context(), historyLimit)
		if err != nil {
			return eris.Wrap(err, "list snapshots")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snaps)
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete snapshots older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		days := historyPruneDays
		if days <= 0 {
			days = cfg.Discovery.RetentionDays
		}
		cutoff := time.Now().AddDate(0, 0, -days)

		n, err := st.PruneSnapshots(cmd.Context(), cutoff)
		if err != nil {
			return eris.Wrap(err, "prune snapshots")
		}

		zap.L().Info("pruned snapshots",
			zap.Int("removed", n),
			zap.Time("cutoff", cutoff),
		)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 30, "maximum snapshots to list")
	historyPruneCmd.Flags().IntVar(&historyPruneDays, "days", 0, "retention in days (default from config)")
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}
