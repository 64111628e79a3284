package memory_map

import (
	"fmt"
	"sort"

	"gomemscan/process"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address uint64 // The starting address of the memory region
	Size    uint   // The size of the memory region in bytes
	Perms   string // Permissions (e.g., "r-xp" for read, execute, private)
	Path    string `json:",omitempty"` // Backing file or pseudo name such as [heap]
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s", mmItem.Address, mmItem.Size, mmItem.Perms)
}

func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return IsReadablePerms(mmItem.Perms)
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return IsWritablePerms(mmItem.Perms)
}

// Protection converts the permission column into a process.Protection
func (mmItem MemoryMapItem) Protection() process.Protection {
	return PermsToProtection(mmItem.Perms)
}

// State reports a mapping without any access as reserved, everything else as committed
func (mmItem MemoryMapItem) State() process.MemoryState {
	if mmItem.Protection() == process.ProtectNoAccess {
		return process.MemReserved
	}
	return process.MemCommitted
}

func IsReadablePerms(perms string) bool {
	return len(perms) > 0 && perms[0] == 'r'
}

func IsWritablePerms(perms string) bool {
	return len(perms) > 1 && perms[1] == 'w'
}

func IsExecutablePerms(perms string) bool {
	return len(perms) > 2 && perms[2] == 'x'
}

// PermsToProtection maps "rwxp"-style permissions to a protection flag set
func PermsToProtection(perms string) process.Protection {
	var p process.Protection
	if IsReadablePerms(perms) {
		p |= process.ProtectRead
	}
	if IsWritablePerms(perms) {
		p |= process.ProtectWrite
	}
	if IsExecutablePerms(perms) {
		p |= process.ProtectExecute
	}
	return p
}

// ProtectionToPerms is the inverse of PermsToProtection, always private
func ProtectionToPerms(p process.Protection) string {
	return p.String()[:3] + "p"
}

// Sort orders the memory map by address, which IsValidAddress2 and QueryRegion require
func Sort(memoryMap []MemoryMapItem) {
	sort.Slice(memoryMap, func(i, j int) bool {
		return memoryMap[i].Address < memoryMap[j].Address
	})
}

// IsValidAddress2 returns the item containing addr in a sorted memory map
func IsValidAddress2(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// QueryRegion answers a region query over a sorted memory map. An address
// inside a mapping yields that mapping, an address in a hole yields a free
// region reaching up to the next mapping, and an address past the last
// mapping yields process.ErrNoMoreRegions.
func QueryRegion(addr process.ProcessMemoryAddress, memoryMap []MemoryMapItem) (process.RegionInfo, error) {
	a := uint64(addr)
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > a
	})
	if i == len(memoryMap) {
		return process.RegionInfo{}, process.ErrNoMoreRegions
	}

	item := memoryMap[i]
	if item.Address > a {
		return process.RegionInfo{
			Base:  addr,
			Size:  process.ProcessMemorySize(item.Address - a),
			State: process.MemFree,
		}, nil
	}

	return process.RegionInfo{
		Base:    process.ProcessMemoryAddress(item.Address),
		Size:    process.ProcessMemorySize(item.Size),
		State:   item.State(),
		Protect: item.Protection(),
	}, nil
}
