package process

import "fmt"

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessInfo contains basic information about a process
type ProcessInfo struct {
	PID     ProcessID    // Process ID
	PPID    ProcessID    // Parent Process ID
	Name    string       // Process name from /proc/[pid]/comm
	Exe     string       // Path to the executable
	State   ProcessState // Process state (R, S, D, Z, etc.)
	Threads int          // Number of threads
}

func (pi ProcessInfo) String() string {
	return fmt.Sprintf("%d %s (%s)", pi.PID, pi.Name, pi.State)
}
