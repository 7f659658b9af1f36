package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <vm-name>",
	Short: "Start an installed VM through launchd",
	Long: `Ask launchd to start the VM's agent, then wait until tart reports the
VM running or start_timeout passes. The VM must be installed and stopped.`,
	Args: nameArg,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	name := args[0]
	m, err := newManager()
	if err != nil {
		return err
	}
	res, err := m.Start(cmd.Context(), name)
	if err != nil {
		return err
	}

	if res.Confirmed {
		fmt.Fprintf(cmd.OutOrStdout(), "Started %s\n", name)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Start requested for %s, not yet confirmed running (check: vmlaunch list)\n", name)
	}
	return nil
}
