package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <vm-name>",
	Short: "Stop a running VM",
	Long: `Stop the VM's launchd agent. If tart still reports the VM running after
stop_grace, the VM is stopped through tart directly.`,
	Args: nameArg,
	RunE: runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	name := args[0]
	m, err := newManager()
	if err != nil {
		return err
	}
	res, err := m.Stop(cmd.Context(), name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case !res.Stopped:
		fmt.Fprintf(out, "Stop requested for %s, VM still reported running\n", name)
	case res.Forced:
		fmt.Fprintf(out, "Stopped %s (through tart)\n", name)
	default:
		fmt.Fprintf(out, "Stopped %s\n", name)
	}
	return nil
}
