package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/splan/core/timetable"
	"github.com/kilianp07/splan/infra/entities"
	"github.com/kilianp07/splan/infra/logger"
	"github.com/kilianp07/splan/infra/splan"
)

var (
	resolveDate   string
	resolveOutput string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Fetch the configured sources and print the resolved timetable once",
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveDate, "date", "", "resolve as of this date (YYYY-MM-DD), default now")
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(resolveCmd)
}

// parseDate returns now, or noon of the given local date.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", s, err)
	}
	return d.Add(12 * time.Hour), nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	if err := checkFormat(resolveOutput); err != nil {
		return err
	}
	at, err := parseDate(resolveDate)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	clock := func() time.Time { return at }
	fetcher := splan.NewFetcher(cfg.Fetch, nil, logger.New("splan-fetch"))
	loader := splan.NewLoader(fetcher, logger.New("splan-loader"), splan.WithClock(clock))

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	st := loader.Load(ctx, cfg.Timetable)
	res := timetable.Resolve(cfg.Timetable, &st, entities.NewStore(cfg.Entities, logger.NopLogger{}), at)

	if resolveOutput != formatTable {
		return printStructured(cmd.OutOrStdout(), resolveOutput, res)
	}
	renderResult(cmd.OutOrStdout(), res, cfg.Timetable.Days)
	return nil
}
