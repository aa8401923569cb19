package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/internal-crm/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crmctl",
		Short: "Operator CLI for the internal CRM ticket service",
		Long: `crmctl talks to a running internal-crm instance: seed demo accounts,
inspect the ticket view for a logged-in account, and watch live assignment
broadcasts on the Redis channel.`,
	}

	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.TicketsCmd())
	rootCmd.AddCommand(cli.WatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
