package agent

import (
	"github.com/javanstorm/vmlaunch/internal/launchd"
	"github.com/javanstorm/vmlaunch/internal/tart"
)

// StatusRow is one line of the status report.
type StatusRow struct {
	// Name is the VM name, from the unit's embedded metadata when readable.
	Name string

	// NameFromLabel is set when Name had to be derived from the label.
	NameFromLabel bool

	Label string
	Agent AgentState
	VM    VMState

	// PID is the supervisor's process id, 0 when not running.
	PID int
}

// Reconcile combines one supervisor observation and one runtime
// observation into a row. The two axes are reported as observed and never
// forced to agree: a VM may run without its agent, and an agent may run
// while the VM still shows stopped.
func Reconcile(name, label string, job launchd.Job, jobFound bool, vm tart.VM, vmFound bool) StatusRow {
	row := StatusRow{Name: name, Label: label, Agent: AgentStopped, VM: VMNotFound}
	if jobFound && job.Running() {
		row.Agent = AgentRunning
		row.PID = job.PID
	}
	if vmFound {
		row.VM = VMStopped
		if vm.IsRunning() {
			row.VM = VMRunning
		}
	}
	return row
}
