package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/billscan/pkg/legiscan"
)

var sessionsYear int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List legislative sessions for a year",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		opts := []legiscan.Option{
			legiscan.WithBaseURL(cfg.API.BaseURL),
			legiscan.WithRequestDelay(cfg.API.RequestDelay()),
			legiscan.WithRetry(resilienceConfig()),
		}
		if cfg.API.InsecureSkipTLS {
			opts = append(opts, legiscan.WithInsecureTLS())
		}
		client := legiscan.NewClient(cfg.API.Key, opts...)

		sessions, err := client.SessionsForYear(cmd.Context(), sessionsYear)
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Fprintf(os.Stderr, "No sessions found for %d.\n", sessionsYear)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION ID\tYEARS\tNAME")
		for _, s := range sessions {
			fmt.Fprintf(w, "%d\t%d-%d\t%s\n", s.SessionID, s.YearStart, s.YearEnd, s.SessionName)
		}
		return w.Flush()
	},
}

func init() {
	sessionsCmd.Flags().IntVar(&sessionsYear, "year", 2025, "calendar year to filter sessions by")
	rootCmd.AddCommand(sessionsCmd)
}
