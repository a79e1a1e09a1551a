package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/airbase/pkg/types"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <base-id> <table> <record-id>",
		Short: "Get a record by ID",
		Long: `Get retrieves one record from a table and prints it as JSON.

Example:
  airbase get appXXXXXXXXXXXXXX "Team members" recYYYYYYYYYYYYYY`,
		Args: cobra.ExactArgs(3),
		RunE: runGet,
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	baseID, tableID, recordID := args[0], args[1], args[2]

	client, err := newClient()
	if err != nil {
		return exitError(exitSysError, err.Error())
	}

	addr := types.NewBaseAndTable(baseID, tableID)
	rec, err := client.GetRaw(cmd.Context(), addr, recordID)
	if errors.Is(err, types.ErrRecordNotFound) {
		return fmt.Errorf("record %q not found in table %q", recordID, tableID)
	}
	if err != nil {
		return fmt.Errorf("get record: %w", err)
	}

	output, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}
