//go:build windows

package process_windows

import (
	"fmt"
	"sort"
	"strings"
	"unsafe"

	"gomemscan/process"

	"golang.org/x/sys/windows"
)

// WindowsOpener implements the process.Opener interface
type WindowsOpener struct{}

var _ process.Opener = WindowsOpener{}

// NewOpener creates a new WindowsOpener
func NewOpener() process.Opener {
	return WindowsOpener{}
}

func (WindowsOpener) Open(pid process.ProcessID) (process.Handle, error) {
	p, err := NewWithPID(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindProcessByName walks a toolhelp snapshot. name matches the executable
// with or without the .exe suffix, case-insensitively.
func (WindowsOpener) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var out []process.ProcessInfo
	for err = windows.Process32First(snap, &entry); err == nil; err = windows.Process32Next(snap, &entry) {
		exe := windows.UTF16ToString(entry.ExeFile[:])
		if strings.EqualFold(exe, name) || strings.EqualFold(strings.TrimSuffix(exe, ".exe"), name) {
			out = append(out, process.ProcessInfo{
				PID:     process.ProcessID(entry.ProcessID),
				PPID:    process.ProcessID(entry.ParentProcessID),
				Name:    exe,
				Exe:     exe,
				State:   process.ProcessRunning,
				Threads: int(entry.Threads),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

func (WindowsOpener) IsAlive(pid process.ProcessID) bool {
	return IsAlive(pid)
}
