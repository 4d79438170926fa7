package main

import (
	"fmt"
	"os"

	"github.com/atlantislabs/atlantis/internal/cli"
	"github.com/atlantislabs/atlantis/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "atlantisd",
		Short: "Atlantis daemon and CLI",
		Long:  "Atlantis daemon for running the chat API server and managing sessions",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.SessionCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
