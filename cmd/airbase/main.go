// Command airbase is the command-line interface for inspecting and
// managing records in remote bases.
package main

import "github.com/mesh-intelligence/airbase/internal/cli"

func main() {
	cli.Execute()
}
