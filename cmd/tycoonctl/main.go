package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tycoon_ledger/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "tycoonctl",
	Short:         "Operator tooling for the tycoon ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		logger.Init(os.Getenv("LOG_LEVEL"), false)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
