// Package cli implements the airbase command-line interface: raw record
// inspection and deletion against the REST API, driven by a config
// directory holding connection settings and per-base API keys.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "airbase" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "airbase",
		Short: "Inspect and manage records in remote bases",
		Long:  "Airbase fetches, lists, and deletes records from remote tabular bases\nover the REST API, using API keys from the configuration directory.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .airbase)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output full records in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newDeleteCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// resolveConfigDir returns the config directory from flag, env, or default.
func resolveConfigDir() string {
	if flags.configDir != "" {
		return flags.configDir
	}
	if v := os.Getenv("AIRBASE_CONFIG_DIR"); v != "" {
		return v
	}
	return ".airbase"
}

// exitError prints the error to stderr and exits with the given code.
func exitError(code int, msg string) error {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
	return nil // unreachable
}
