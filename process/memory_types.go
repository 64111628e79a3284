package process

import (
	"fmt"
	"strings"
)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// AlignDown rounds the address down to a multiple of align (a power of two)
func (pma ProcessMemoryAddress) AlignDown(align ProcessMemorySize) ProcessMemoryAddress {
	return pma &^ ProcessMemoryAddress(align-1)
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// Protection is the access flag set of a memory region
type Protection uint8

const (
	ProtectNoAccess Protection = 0
	ProtectRead     Protection = 1 << iota
	ProtectWrite
	ProtectExecute
	ProtectGuard
	ProtectCopyOnWrite
)

// Has reports whether every flag in f is set
func (p Protection) Has(f Protection) bool {
	return p&f == f
}

// IsAccessible reports whether the region can be read at all: one of
// read-only, read-write, execute-read, execute-read-write or execute.
// Guard and copy-on-write pages are not.
func (p Protection) IsAccessible() bool {
	return p&(ProtectRead|ProtectExecute) != 0 && p&(ProtectGuard|ProtectCopyOnWrite) == 0
}

// IsExecuteOnlyOrRWX reports execute and execute-read-write pages. Value
// searches skip them.
func (p Protection) IsExecuteOnlyOrRWX() bool {
	if p&ProtectExecute == 0 {
		return false
	}
	return !p.Has(ProtectRead) || p.Has(ProtectWrite)
}

// String renders the protection like a maps permission column, e.g. "r-x"
func (p Protection) String() string {
	var sb strings.Builder
	sb.WriteByte(flagChar(p.Has(ProtectRead), 'r'))
	sb.WriteByte(flagChar(p.Has(ProtectWrite), 'w'))
	sb.WriteByte(flagChar(p.Has(ProtectExecute), 'x'))
	if p.Has(ProtectGuard) {
		sb.WriteByte('g')
	}
	if p.Has(ProtectCopyOnWrite) {
		sb.WriteByte('c')
	}
	return sb.String()
}

func flagChar(set bool, c byte) byte {
	if set {
		return c
	}
	return '-'
}

// MemoryState is the allocation state of a region of the address space
type MemoryState uint8

const (
	MemFree MemoryState = iota
	MemReserved
	MemCommitted
)

func (s MemoryState) String() string {
	switch s {
	case MemFree:
		return "free"
	case MemReserved:
		return "reserved"
	case MemCommitted:
		return "committed"
	}
	return "unknown"
}

// RegionInfo is the answer of a region query. It can describe an unmapped gap.
type RegionInfo struct {
	Base    ProcessMemoryAddress
	Size    ProcessMemorySize
	State   MemoryState
	Protect Protection
}

// End returns the first address past the region
func (r RegionInfo) End() ProcessMemoryAddress {
	return r.Base + ProcessMemoryAddress(r.Size)
}
