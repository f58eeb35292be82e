package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxlingua/voxlingua/client"
	"github.com/voxlingua/voxlingua/internal/auth"
)

var (
	apiFlag      string
	tokenFlag    string
	realtimeFlag string
	rootCmd      = &cobra.Command{
		Use:   "voxctl",
		Short: "CLI client for the voxlingua service",
	}
)

// newClient builds an SDK client from the persistent flags.
func newClient() *client.Client {
	opts := []client.Option{}
	if realtimeFlag != "" {
		opts = append(opts, client.WithRealtimeBaseURL(realtimeFlag))
	}
	return client.New(apiFlag, tokenFlag, opts...)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:3030", "voxlingua service base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", auth.LocalDevToken, "bearer identity token")
	rootCmd.PersistentFlags().StringVar(&realtimeFlag, "realtime", "", "realtime endpoint override (defaults to the public service)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
