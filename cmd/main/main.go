package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "crypto-advisor",
	Short:         "Personalized crypto dashboard API: prices, news, AI insight and memes",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(configPath)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the live price stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(configPath)
	},
}

var writePath string

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Load, default and validate the configuration, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheckConfig(cmd.OutOrStdout(), configPath, writePath)
	},
}

// -----------------------------------------------------------------------------

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/default.yaml", "path to config file")
	checkConfigCmd.Flags().StringVar(&writePath, "write", "", "write the effective config (secrets blanked) to this path")

	rootCmd.AddCommand(serveCmd, checkConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
