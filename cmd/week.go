package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/splan/core/timetable"
	"github.com/kilianp07/splan/core/week"
	"github.com/kilianp07/splan/infra/entities"
	"github.com/kilianp07/splan/infra/logger"
)

var weekDate string

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Print the ISO week and the active A/B designator",
	RunE:  runWeek,
}

func init() {
	weekCmd.Flags().StringVar(&weekDate, "date", "", "date (YYYY-MM-DD), default today")
	rootCmd.AddCommand(weekCmd)
}

func runWeek(cmd *cobra.Command, args []string) error {
	at, err := parseDate(weekDate)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	year, wk := week.ISOWeek(at)
	designator := timetable.ActiveWeek(cfg.Timetable.Week, entities.NewStore(cfg.Entities, logger.NopLogger{}), at)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "date:   %s\nweek:   %d/%02d\nmode:   %s\nactive: %s\n",
		at.Format("2006-01-02"), year, wk, cfg.Timetable.Week.Mode, designator)
	return err
}
