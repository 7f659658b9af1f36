package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/javanstorm/vmlaunch/internal/agent"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed VMs with agent and VM state",
	Long: `List every VM with an installed unit. The AGENT column is launchd's view
and the VM column is tart's; they are queried separately and may disagree,
for example while a VM boots or after it was started by hand.`,
	Args: noArgs,
	RunE: runList,
}

var listVerbose bool

func init() {
	listCmd.Flags().BoolVarP(&listVerbose, "verbose", "v", false, "also show the launchd label and PID")
}

func runList(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	rows, err := m.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No VMs installed.")
		return nil
	}
	return writeTable(out, rows, listVerbose)
}

func writeTable(out io.Writer, rows []agent.StatusRow, verbose bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if verbose {
		fmt.Fprintln(w, "NAME\tAGENT\tVM\tLABEL\tPID")
	} else {
		fmt.Fprintln(w, "NAME\tAGENT\tVM")
	}
	for _, r := range rows {
		if !verbose {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Agent, r.VM)
			continue
		}
		pid := "-"
		if r.PID > 0 {
			pid = strconv.Itoa(r.PID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Agent, r.VM, r.Label, pid)
	}
	return w.Flush()
}
