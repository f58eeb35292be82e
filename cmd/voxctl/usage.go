package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "Show today's conversation time budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()
			snap, err := c.GetUsage(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "date:      %s\nused:      %ds\nremaining: %ds\n",
				snap.UsageDate, snap.UsedSeconds, snap.RemainingSeconds)
			return nil
		},
	}
	rootCmd.AddCommand(usageCmd)
}
