package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <vm-name>",
	Short: "Install a VM as a launchd agent",
	Long: `Write the launchd unit for a tart VM and register it with launchd.

The VM is not started unless run_at_load is configured. If the VM is
already installed you are asked whether to reinstall; --force reinstalls
without asking. Reinstalling keeps the existing log files.`,
	Example: `  vmlaunch install macos-sonoma-xcode:16.1
  vmlaunch install ubuntu --force`,
	Args: nameArg,
	RunE: runInstall,
}

var installForce bool

func init() {
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "reinstall without asking if already installed")
}

func runInstall(cmd *cobra.Command, args []string) error {
	name := args[0]
	m, err := newManager()
	if err != nil {
		return err
	}
	if err := m.Install(cmd.Context(), name, installForce); err != nil {
		return err
	}

	layout := m.Layout()
	stdout, stderr := layout.LogPaths(name)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Installed %s as %s\n", name, layout.Label(name))
	fmt.Fprintf(out, "  Unit: %s\n", layout.UnitPath(name))
	fmt.Fprintf(out, "  Logs: %s\n", stdout)
	fmt.Fprintf(out, "        %s\n", stderr)
	fmt.Fprintf(out, "\nStart it with: vmlaunch start %s\n", name)
	return nil
}
