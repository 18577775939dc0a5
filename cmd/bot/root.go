package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fish-house",
	Short: "Telegram storefront for the fish shop",
	Long: `fish-house runs a Telegram bot that lets customers browse the catalog,
fill a cart and leave an email for the order.`,
	SilenceUsage: true,
	RunE:         runBot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().String("config", "", "Path to the config file (default depends on --dev)")
	rootCmd.Flags().Bool("dev", false, "Run in development mode (local paths, file sessions, debug logging)")
}
