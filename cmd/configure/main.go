package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck-api/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "taskdeck-configure",
		Short: "Configuration tool for TaskDeck API",
		Long:  "CLI tool for checking TaskDeck's backing services and model providers",
	}

	rootCmd.AddCommand(commands.NewCheckCmd())
	rootCmd.AddCommand(commands.NewProvidersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
