// Command assemblyctl is the operator tool of assembly-service
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "assemblyctl",
		Short:        "Operator tool for the assembly governance service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		migrateCmd(),
		tokenCmd(),
		seedPropertiesCmd(),
		auditCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
