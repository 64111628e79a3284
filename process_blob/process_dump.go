package process_blob

import (
	"fmt"
	"sort"
	"sync"

	"gomemscan/process"
	"gomemscan/process/memory_map"
)

// span is a half-open address range [start, end)
type span struct {
	start, end uint64
}

// ProcessDump implements process.Handle over memory held in this process:
// a saved dump loaded from disk, a capture of a live target, or regions
// assembled by hand.
type ProcessDump struct {
	PID       process.ProcessID
	Name      string
	MemoryMap []memory_map.MemoryMapItem
	Blobs     map[uint64][]byte // Address -> Data

	unreadable []span
	closed     bool
	mu         sync.RWMutex
}

var _ process.Handle = (*ProcessDump)(nil)

// NewProcessDump creates a new ProcessDump instance
func NewProcessDump() *ProcessDump {
	return &ProcessDump{
		Blobs: make(map[uint64][]byte),
	}
}

// AddRegion maps data at addr with the given "rwxp" permissions. The region
// size is len(data).
func (p *ProcessDump) AddRegion(addr uint64, perms string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.MemoryMap = append(p.MemoryMap, memory_map.MemoryMapItem{
		Address: addr,
		Size:    uint(len(data)),
		Perms:   perms,
	})
	memory_map.Sort(p.MemoryMap)
	p.Blobs[addr] = data
}

// MarkUnreadable makes reads touching [addr, addr+size) stop short, the way
// a page unmapped behind the map's back does
func (p *ProcessDump) MarkUnreadable(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unreadable = append(p.unreadable, span{uint64(addr), uint64(addr) + uint64(size)})
	sort.Slice(p.unreadable, func(i, j int) bool {
		return p.unreadable[i].start < p.unreadable[j].start
	})
}

func (p *ProcessDump) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}

func (p *ProcessDump) GetPID() process.ProcessID {
	return p.PID
}

// UpdateMemoryMap only re-sorts, the memory map is static in a dump
func (p *ProcessDump) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return process.ErrProcessNotOpen
	}
	memory_map.Sort(p.MemoryMap)
	return nil
}

func (p *ProcessDump) QueryRegion(addr process.ProcessMemoryAddress) (process.RegionInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return process.RegionInfo{}, process.ErrProcessNotOpen
	}
	return memory_map.QueryRegion(addr, p.MemoryMap)
}

// ReadMemoryInto copies from the blobs, continuing into the next region when
// it is adjacent, and stops at the first byte that has no readable backing.
func (p *ProcessDump) ReadMemoryInto(addr process.ProcessMemoryAddress, buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, process.ErrProcessNotOpen
	}

	n := 0
	cur := uint64(addr)
	for n < len(buf) {
		region := memory_map.IsValidAddress2(cur, p.MemoryMap)
		if region == nil || !region.IsReadable() {
			break
		}
		data, ok := p.Blobs[region.Address]
		if !ok {
			break
		}
		offset := cur - region.Address
		if offset >= uint64(len(data)) {
			break
		}

		want := uint64(len(buf) - n)
		if avail := uint64(len(data)) - offset; want > avail {
			want = avail
		}
		want = p.readableLen(cur, want)
		if want == 0 {
			break
		}

		copy(buf[n:], data[offset:offset+want])
		n += int(want)
		cur += want

		if offset+want < uint64(len(data)) {
			// stopped inside the region, by an unreadable span
			break
		}
	}

	if n == 0 && len(buf) > 0 {
		return 0, fmt.Errorf("read at 0x%x: %w", uint64(addr), process.ErrAddressNotMapped)
	}
	if n < len(buf) {
		return n, fmt.Errorf("%w: %d of %d bytes", process.ErrPartialRead, n, len(buf))
	}
	return n, nil
}

// readableLen clips length so that [addr, addr+length) avoids unreadable spans
func (p *ProcessDump) readableLen(addr, length uint64) uint64 {
	end := addr + length
	for _, s := range p.unreadable {
		if s.end <= addr {
			continue
		}
		if s.start >= end {
			break
		}
		if s.start <= addr {
			return 0
		}
		end = s.start
	}
	return end - addr
}

// WriteMemory writes data to the process memory at the specified address
func (p *ProcessDump) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return process.ErrProcessNotOpen
	}

	region := memory_map.IsValidAddress2(uint64(addr), p.MemoryMap)
	if region == nil {
		return fmt.Errorf("memory region not found for address %x: %w", uint64(addr), process.ErrAddressNotMapped)
	}
	if !region.IsWritable() {
		return fmt.Errorf("memory region at %x is not writable", uint64(addr))
	}

	blob := p.Blobs[region.Address]
	offset := uint64(addr) - region.Address
	if offset+uint64(len(data)) > uint64(len(blob)) {
		return fmt.Errorf("write of %d bytes at %x exceeds region data bounds", len(data), uint64(addr))
	}

	copy(blob[offset:], data)
	return nil
}
