// Package cmd provides the command-line interface of avrtester.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// NewRootCommand creates the avrtester command with all its subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "avrtester",
		Short: "avrtester runs firmware on a virtual MCU next to components " +
			"that model the hardware around it.",
		Long: `avrtester runs firmware on a virtual MCU next to components ` +
			`that model the hardware around it. Every bundled scenario ` +
			`checks what its components observed.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newListCommand(), newRunCommand())

	return rootCmd
}

// Execute runs the root command and exits through atexit so that recordings
// are flushed.
func Execute() {
	err := NewRootCommand().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
