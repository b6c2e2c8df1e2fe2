package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// runIDCmd prints a fresh run identifier, to be exported as RECEIPTS_RUN_ID
// for every emit, complete and collect of the run.
var runIDCmd = &cobra.Command{
	Use:   "run-id",
	Short: "Print a new run identifier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), uuid.NewString())

		return err
	},
}

func init() {
	rootCmd.AddCommand(runIDCmd)
}
