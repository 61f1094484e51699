package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskboard-auth",
	Short: "Task board identity and project access service",
	Long: `Credential and token lifecycle for the task board: registration, email verification,
login, refresh, logout, password reset, and project-scoped role checks over HTTP.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
