package emulator

// RunState is the state of the dispatch loop after a Step or Run.
type RunState int

//go:generate go tool stringer -linecomment -type=RunState
const (
	RUN_RUNNING = RunState(0) // running
	RUN_STOPPED = RunState(1) // stopped
	RUN_BREAK   = RunState(2) // break
	RUN_TRAPPED = RunState(3) // trapped
	RUN_HALTED  = RunState(4) // halted
	RUN_FAULTED = RunState(5) // faulted
)
