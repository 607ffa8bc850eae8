//go:build !(js || wasm)

package main

import (
	"os"

	"github.com/cottand/tyck/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "tyck [subcommand]",
	Short:        "tyck checks method calls and writes their types back",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.ScenarioCmd)
}
