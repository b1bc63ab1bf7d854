package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/billscan/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the search result cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached search entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL())
		if err != nil {
			return err
		}

		entries, err := c.Entries()
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "Cache is empty.")
			return nil
		}

		warm := 0
		var total int64
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tSIZE\tWRITTEN\tSTATE")
		for _, e := range entries {
			state := "cold"
			if e.Warm {
				state = "warm"
				warm++
			}
			total += e.Size
			fmt.Fprintf(w, "%.12s\t%d\t%s\t%s\n", e.Key, e.Size, e.ModTime.Format("2006-01-02 15:04"), state)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "%d entries (%d warm), %d bytes, ttl %s\n", len(entries), warm, total, cfg.Cache.TTL())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached search entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL())
		if err != nil {
			return err
		}

		removed, err := c.Clear()
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Removed %d cache entries.\n", removed)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
