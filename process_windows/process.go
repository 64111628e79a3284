//go:build windows

package process_windows

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"gomemscan/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

const (
	desiredAccess = windows.PROCESS_VM_READ | windows.PROCESS_VM_WRITE |
		windows.PROCESS_VM_OPERATION | windows.PROCESS_QUERY_INFORMATION

	stillActive = 259
)

// WindowsProcess implements the process.Handle interface for Windows systems
type WindowsProcess struct {
	pid    process.ProcessID
	handle windows.Handle
	log    *logger.Logger
	mu     sync.Mutex
}

var _ process.Handle = (*WindowsProcess)(nil)

// New creates a new WindowsProcess instance
func New() *WindowsProcess {
	return &WindowsProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
}

// NewWithPID creates a new WindowsProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (*WindowsProcess, error) {
	p := New()
	err := p.Open(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *WindowsProcess) Open(pid process.ProcessID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	handle, err := windows.OpenProcess(desiredAccess, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess(%d) failed: %w", pid, err)
	}

	p.pid = pid
	p.handle = handle
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))

	p.log.Infoln("Process opened")
	return nil
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != 0 {
		if err := windows.CloseHandle(p.handle); err != nil {
			return fmt.Errorf("CloseHandle failed: %w", err)
		}
		p.handle = 0
	}

	p.pid = 0
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))
	p.log.Infoln("Process closed")

	return nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// UpdateMemoryMap is a no-op, VirtualQueryEx always answers from the live process
func (p *WindowsProcess) UpdateMemoryMap() error {
	if p.getHandle() == 0 {
		return process.ErrProcessNotOpen
	}
	return nil
}

func (p *WindowsProcess) getHandle() windows.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

// QueryRegion wraps VirtualQueryEx. Its failure past the top of the user
// address space is reported as process.ErrNoMoreRegions.
func (p *WindowsProcess) QueryRegion(addr process.ProcessMemoryAddress) (process.RegionInfo, error) {
	h := p.getHandle()
	if h == 0 {
		return process.RegionInfo{}, process.ErrProcessNotOpen
	}

	var mbi windows.MemoryBasicInformation
	if err := windows.VirtualQueryEx(h, uintptr(addr), &mbi, unsafe.Sizeof(mbi)); err != nil {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			return process.RegionInfo{}, process.ErrNoMoreRegions
		}
		return process.RegionInfo{}, fmt.Errorf("VirtualQueryEx(%#x): %w", uint64(addr), err)
	}

	return process.RegionInfo{
		Base:    process.ProcessMemoryAddress(mbi.BaseAddress),
		Size:    process.ProcessMemorySize(mbi.RegionSize),
		State:   memoryState(mbi.State),
		Protect: protection(mbi.Protect),
	}, nil
}

func memoryState(state uint32) process.MemoryState {
	switch state {
	case windows.MEM_COMMIT:
		return process.MemCommitted
	case windows.MEM_RESERVE:
		return process.MemReserved
	}
	return process.MemFree
}

// protection maps PAGE_* constants. Write-copy pages keep their own flag so
// the catalog can leave them out.
func protection(protect uint32) process.Protection {
	var p process.Protection
	switch protect &^ (windows.PAGE_GUARD | windows.PAGE_NOCACHE | windows.PAGE_WRITECOMBINE) {
	case windows.PAGE_READONLY:
		p = process.ProtectRead
	case windows.PAGE_READWRITE:
		p = process.ProtectRead | process.ProtectWrite
	case windows.PAGE_WRITECOPY:
		p = process.ProtectRead | process.ProtectWrite | process.ProtectCopyOnWrite
	case windows.PAGE_EXECUTE:
		p = process.ProtectExecute
	case windows.PAGE_EXECUTE_READ:
		p = process.ProtectRead | process.ProtectExecute
	case windows.PAGE_EXECUTE_READWRITE:
		p = process.ProtectRead | process.ProtectWrite | process.ProtectExecute
	case windows.PAGE_EXECUTE_WRITECOPY:
		p = process.ProtectRead | process.ProtectWrite | process.ProtectExecute | process.ProtectCopyOnWrite
	}
	if protect&windows.PAGE_GUARD != 0 {
		p |= process.ProtectGuard
	}
	return p
}

// ReadMemoryInto wraps ReadProcessMemory; ERROR_PARTIAL_COPY keeps the byte count
func (p *WindowsProcess) ReadMemoryInto(addr process.ProcessMemoryAddress, buf []byte) (int, error) {
	h := p.getHandle()
	if h == 0 {
		return 0, process.ErrProcessNotOpen
	}
	if len(buf) == 0 {
		return 0, nil
	}

	var n uintptr
	err := windows.ReadProcessMemory(h, uintptr(addr), &buf[0], uintptr(len(buf)), &n)
	if err != nil {
		return int(n), fmt.Errorf("ReadProcessMemory(%#x): %w", uint64(addr), err)
	}
	if int(n) != len(buf) {
		return int(n), fmt.Errorf("%w: %d of %d bytes", process.ErrPartialRead, n, len(buf))
	}
	return int(n), nil
}

// WriteMemory writes data to the process memory at the specified address
func (p *WindowsProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	h := p.getHandle()
	if h == 0 {
		return process.ErrProcessNotOpen
	}
	if len(data) == 0 {
		return nil
	}

	var n uintptr
	if err := windows.WriteProcessMemory(h, uintptr(addr), &data[0], uintptr(len(data)), &n); err != nil {
		return fmt.Errorf("WriteProcessMemory(%#x): %w", uint64(addr), err)
	}
	if int(n) != len(data) {
		return fmt.Errorf("only wrote %d of %d bytes", n, len(data))
	}
	return nil
}

// IsAlive checks the exit code through a fresh query handle
func IsAlive(pid process.ProcessID) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == stillActive
}
