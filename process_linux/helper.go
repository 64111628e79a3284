//go:build linux

package process_linux

import (
	"gomemscan/process"
)

// LinuxOpener implements the process.Opener interface
type LinuxOpener struct{}

var _ process.Opener = LinuxOpener{}

// NewOpener creates a new LinuxOpener
func NewOpener() process.Opener {
	return LinuxOpener{}
}

// Open opens a process handle with the given PID
func (LinuxOpener) Open(pid process.ProcessID) (process.Handle, error) {
	p, err := NewWithPID(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindProcessByName finds processes by their name (exact match)
func (LinuxOpener) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	return ListByName(name)
}

func (LinuxOpener) IsAlive(pid process.ProcessID) bool {
	return IsAlive(pid)
}
