package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <vm-name>",
	Short: "Remove a VM's launchd agent",
	Long: `Stop the VM if it is running, deregister its agent from launchd and
delete its unit. Log files are deleted with --clean-logs or when you confirm;
otherwise their paths are printed.`,
	Args: nameArg,
	RunE: runUninstall,
}

var uninstallCleanLogs bool

func init() {
	uninstallCmd.Flags().BoolVarP(&uninstallCleanLogs, "clean-logs", "c", false, "delete the VM's log files without asking")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	name := args[0]
	m, err := newManager()
	if err != nil {
		return err
	}
	res, err := m.Uninstall(cmd.Context(), name, uninstallCleanLogs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Stopped {
		fmt.Fprintf(out, "Stopped %s\n", name)
	}
	fmt.Fprintf(out, "Uninstalled %s\n", name)
	for _, p := range res.RemovedLogs {
		fmt.Fprintf(out, "  Removed %s\n", p)
	}
	if len(res.KeptLogs) > 0 {
		fmt.Fprintln(out, "Log files kept:")
		for _, p := range res.KeptLogs {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}
	return nil
}
