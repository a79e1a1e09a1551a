package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/airbase/pkg/types"
)

func newListCmd() *cobra.Command {
	var formula string

	cmd := &cobra.Command{
		Use:   "list <base-id> <table>",
		Short: "List records in a table",
		Long: `List fetches all records from a table, following pagination, and
prints one line per record. With --json each record is printed as a
JSON object; otherwise only the record ID and creation time are shown.

Example:
  airbase list appXXXXXXXXXXXXXX "Team members"
  airbase list appXXXXXXXXXXXXXX Tasks --formula '{Done}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, formula)
		},
	}
	cmd.Flags().StringVar(&formula, "formula", "", "filter records by formula")

	return cmd
}

func runList(cmd *cobra.Command, args []string, formula string) error {
	baseID, tableID := args[0], args[1]

	client, err := newClient()
	if err != nil {
		return exitError(exitSysError, err.Error())
	}

	addr := types.NewBaseAndTable(baseID, tableID)
	out := cmd.OutOrStdout()

	err = client.ListRaw(cmd.Context(), addr, formula, func(rec types.WireRecord) error {
		if flags.jsonMode {
			line, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal record: %w", err)
			}
			fmt.Fprintln(out, string(line))
			return nil
		}
		fmt.Fprintf(out, "%s\t%s\n", rec.ID, rec.CreatedTime)
		return nil
	})
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	return nil
}
