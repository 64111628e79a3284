//go:build linux

package process_linux

import (
	"fmt"

	"gomemscan/process"
	"gomemscan/process/memory_map"

	"golang.org/x/sys/unix"
)

// process_vm_writev uses the process_vm_writev syscall to write memory to another process
func process_vm_writev(
	pid process.ProcessID,
	localBuf []byte,
	remoteAddr process.ProcessMemoryAddress,
) (int, error) {
	localIov := []unix.Iovec{{Base: &localBuf[0]}}
	localIov[0].SetLen(len(localBuf))

	remoteIov := []unix.RemoteIovec{{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}}

	n, err := unix.ProcessVMWritev(int(pid), localIov, remoteIov, 0)
	if err != nil {
		return 0, fmt.Errorf("process_vm_writev failed: %w", err)
	}

	return n, nil
}

// WriteMemory writes data to the process memory at the specified address
func (p *LinuxProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	p.mu.Lock()
	pid := p.pid
	region := memory_map.IsValidAddress2(uint64(addr), p.mm)
	p.mu.Unlock()

	if pid == 0 {
		return process.ErrProcessNotOpen
	}

	if region == nil {
		return fmt.Errorf("memory region not found for address %x: %w", addr, process.ErrAddressNotMapped)
	}

	if !region.IsWritable() {
		return fmt.Errorf("memory region at %x is not writable", addr)
	}

	// Create a copy of the data to avoid potential modification during the write
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	written, err := process_vm_writev(pid, dataCopy, addr)
	if err != nil {
		return fmt.Errorf("failed to write process memory: %w", err)
	}

	if written != len(data) {
		return fmt.Errorf("only wrote %d of %d bytes", written, len(data))
	}

	return nil
}
