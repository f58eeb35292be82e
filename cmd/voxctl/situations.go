package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxlingua/voxlingua/client"
)

func init() {
	situationsCmd := &cobra.Command{Use: "situations", Short: "Situation catalogue operations"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List situations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()
			sits, err := c.ListSituations(context.Background())
			if err != nil {
				return err
			}
			for _, s := range sits {
				fmt.Fprintf(os.Stdout, "%-16s %-24s %s\n", s.ID, s.Title, s.Theme)
			}
			return nil
		},
	}
	situationsCmd.AddCommand(listCmd)

	showCmd := &cobra.Command{
		Use:   "show SITUATION_ID",
		Short: "Show one situation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()
			sit, err := c.GetSituation(context.Background(), args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(sit, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	situationsCmd.AddCommand(showCmd)

	var title, theme, prompt, accent, ambience, links string
	updateCmd := &cobra.Command{
		Use:   "update SITUATION_ID",
		Short: "Update a situation (only the provided flags change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req client.UpdateSituationRequest
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("theme") {
				req.Theme = &theme
			}
			if cmd.Flags().Changed("prompt") {
				req.Prompt = &prompt
			}
			if cmd.Flags().Changed("accent") {
				req.Accent = &accent
			}
			if cmd.Flags().Changed("ambience") {
				req.Ambience = &ambience
			}
			if cmd.Flags().Changed("links") {
				parts := strings.Split(links, ",")
				req.Links = &parts
			}

			c := newClient()
			defer func() { _ = c.Close() }()
			sit, err := c.UpdateSituation(context.Background(), args[0], req)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(sit, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	updateCmd.Flags().StringVar(&title, "title", "", "situation title")
	updateCmd.Flags().StringVar(&theme, "theme", "", "situation theme")
	updateCmd.Flags().StringVar(&prompt, "prompt", "", "scenario prompt")
	updateCmd.Flags().StringVar(&accent, "accent", "", "accent hint")
	updateCmd.Flags().StringVar(&ambience, "ambience", "", "ambience hint")
	updateCmd.Flags().StringVar(&links, "links", "", "comma-separated suggested phrases")
	situationsCmd.AddCommand(updateCmd)

	rootCmd.AddCommand(situationsCmd)
}
