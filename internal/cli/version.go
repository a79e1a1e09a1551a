package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the airbase release version.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/airbase"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the airbase version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "airbase v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
