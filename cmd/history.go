package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/splan/core/history"
	"github.com/kilianp07/splan/core/timetable"
	"github.com/kilianp07/splan/infra/logger"
	"github.com/kilianp07/splan/infra/store"
)

var (
	historyLimit  int
	historySource string
	historyOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored resolutions, newest first",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries (0 for all)")
	historyCmd.Flags().StringVar(&historySource, "source", "", "only entries resolved from this source")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := checkFormat(historyOutput); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	h, err := store.New(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := h.Close(); err != nil {
			logger.New("history").Errorf("close store: %v", err)
		}
	}()
	recs, err := h.Query(cmd.Context(), history.Query{Source: timetable.Source(historySource), Limit: historyLimit})
	if err != nil {
		return err
	}
	if historyOutput != formatTable {
		return printStructured(cmd.OutOrStdout(), historyOutput, recs)
	}
	renderHistory(cmd.OutOrStdout(), recs)
	return nil
}
