package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/airbase/pkg/types"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <base-id> <table> <record-id>",
		Short: "Delete a record by ID",
		Long: `Delete removes one record from a table.

Example:
  airbase delete appXXXXXXXXXXXXXX "Team members" recYYYYYYYYYYYYYY`,
		Args: cobra.ExactArgs(3),
		RunE: runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	baseID, tableID, recordID := args[0], args[1], args[2]

	client, err := newClient()
	if err != nil {
		return exitError(exitSysError, err.Error())
	}

	addr := types.NewBaseAndTable(baseID, tableID)
	err = client.DeleteRaw(cmd.Context(), addr, recordID)
	if errors.Is(err, types.ErrRecordNotFound) {
		return fmt.Errorf("record %q not found in table %q", recordID, tableID)
	}
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", recordID)
	return nil
}
