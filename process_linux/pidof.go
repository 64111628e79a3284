//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"gomemscan/process"
)

// ListByName returns all processes whose comm or exe basename equals name.
// name match is case-sensitive (like pidof). The result is ordered by PID.
func ListByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, errors.New("empty name")
	}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}

	selfPID := os.Getpid()
	var out []process.ProcessInfo

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue // not a PID dir
		}
		if pid == selfPID {
			continue // skip ourselves
		}

		info, err := ProcessInfo(process.ProcessID(pid))
		if err != nil {
			// exited while we were looking
			continue
		}
		if info.Name == name || (info.Exe != "" && filepath.Base(info.Exe) == name) {
			out = append(out, *info)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

// ProcessInfo reads comm, exe and stat of a single process
func ProcessInfo(pid process.ProcessID) (*process.ProcessInfo, error) {
	procPath := filepath.Join("/proc", strconv.Itoa(int(pid)))

	comm, err := os.ReadFile(filepath.Join(procPath, "comm"))
	if err != nil {
		return nil, fmt.Errorf("failed to read process name: %w", err)
	}

	// Resolve /proc/<pid>/exe symlink; may fail if zombie or permission
	exe, _ := os.Readlink(filepath.Join(procPath, "exe"))

	info := &process.ProcessInfo{
		PID:  pid,
		Name: string(bytesTrimNL(comm)),
		Exe:  exe,
	}

	stat, err := os.ReadFile(filepath.Join(procPath, "stat"))
	if err != nil {
		return info, nil
	}
	parseStat(string(stat), info)

	return info, nil
}

// parseStat fills state, ppid and thread count from /proc/<pid>/stat. The
// comm field may contain spaces and parentheses, so fields are counted from
// the last ')'.
func parseStat(data string, info *process.ProcessInfo) {
	end := strings.LastIndexByte(data, ')')
	if end < 0 {
		return
	}
	fields := strings.Fields(data[end+1:])
	if len(fields) < 18 {
		return
	}

	info.State = process.ProcessState(fields[0])
	if ppid, err := strconv.Atoi(fields[1]); err == nil {
		info.PPID = process.ProcessID(ppid)
	}
	if threads, err := strconv.Atoi(fields[17]); err == nil {
		info.Threads = threads
	}
}

// IsAlive reports whether pid exists and has not exited
func IsAlive(pid process.ProcessID) bool {
	if !procExists(int(pid)) {
		return false
	}
	info, err := ProcessInfo(pid)
	if err != nil {
		return false
	}
	return !info.State.IsGone()
}

// ----- helpers -----

func procExists(pid int) bool {
	// Fast path: stat /proc/<pid>
	_, err := os.Stat(filepath.Join("/proc", strconv.Itoa(pid)))
	if err == nil {
		return true
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	// For transient errors (permission, EIO): fall back to kill 0
	return syscall.Kill(pid, 0) == nil
}

func bytesTrimNL(b []byte) []byte {
	// Trim trailing '\n' if present (comm has a newline).
	for len(b) > 0 {
		switch b[len(b)-1] {
		case '\n', '\r', ' ', '\t':
			b = b[:len(b)-1]
		default:
			return b
		}
	}
	return b
}
