package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/taskapi/cmd/api/commands"
)

// @title Task Management API
// @version 1.0.0
// @description CRUD task management with filtering, pagination and stats.
// @BasePath /

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskapi",
		Short: "Task Management API server",
		Long:  `taskapi serves a CRUD task management API backed by PostgreSQL or SQLite, and a small static todo listing service.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewServeTodosCommand())
	rootCmd.AddCommand(commands.NewInitDBCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
