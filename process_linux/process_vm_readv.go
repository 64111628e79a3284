//go:build linux

package process_linux

import (
	"fmt"

	"gomemscan/process"

	"golang.org/x/sys/unix"
)

// process_vm_readv reads len(localBuf) bytes at remoteAddr of pid into localBuf.
// The kernel stops at the first inaccessible page, so n may be short.
func process_vm_readv(
	pid process.ProcessID,
	localBuf []byte,
	remoteAddr process.ProcessMemoryAddress,
) (int, error) {
	if len(localBuf) == 0 {
		return 0, nil
	}

	localIov := []unix.Iovec{{Base: &localBuf[0]}}
	localIov[0].SetLen(len(localBuf))

	remoteIov := []unix.RemoteIovec{{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}}

	n, err := unix.ProcessVMReadv(int(pid), localIov, remoteIov, 0)
	if err != nil {
		return 0, fmt.Errorf("process_vm_readv failed: %w", err)
	}

	if n != len(localBuf) {
		return n, fmt.Errorf("%w: %d of %d bytes", process.ErrPartialRead, n, len(localBuf))
	}

	return n, nil
}

// ReadMemoryInto reads memory from the process at the specified address into buf
func (p *LinuxProcess) ReadMemoryInto(addr process.ProcessMemoryAddress, buf []byte) (int, error) {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()

	if pid == 0 {
		return 0, process.ErrProcessNotOpen
	}

	// No lock around the system call; reads from many workers run in parallel
	return process_vm_readv(pid, buf, addr)
}
