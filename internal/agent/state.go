package agent

// AgentState is the supervisor's view of a VM's unit.
type AgentState int

const (
	AgentNotInstalled AgentState = iota // no unit definition
	AgentStopped                        // defined, no live process
	AgentRunning                        // supervisor reports a PID
)

func (s AgentState) String() string {
	switch s {
	case AgentNotInstalled:
		return "NotInstalled"
	case AgentStopped:
		return "Stopped"
	case AgentRunning:
		return "Running"
	default:
		return "unknown"
	}
}

// VMState is the VM runtime's view of a VM, independent of any unit.
type VMState int

const (
	VMNotFound VMState = iota // absent from the runtime catalog
	VMStopped                 // present, not running
	VMRunning                 // present and running
)

func (s VMState) String() string {
	switch s {
	case VMNotFound:
		return "NotFound"
	case VMStopped:
		return "Stopped"
	case VMRunning:
		return "Running"
	default:
		return "unknown"
	}
}
