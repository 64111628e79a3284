package process

// Handle is a live view on a target process' address space. It is what the
// attach collaborator hands to a scanning session.
type Handle interface {
	// GetPID returns the process ID
	GetPID() ProcessID

	// UpdateMemoryMap refreshes whatever QueryRegion answers from
	UpdateMemoryMap() error

	// QueryRegion describes the region containing addr, or the next one above
	// it. ErrNoMoreRegions is returned once addr is past the last region.
	QueryRegion(addr ProcessMemoryAddress) (RegionInfo, error)

	// ReadMemoryInto copies target memory at addr into buf. A partial read
	// returns the number of bytes copied together with a non-nil error.
	ReadMemoryInto(addr ProcessMemoryAddress, buf []byte) (int, error)

	// WriteMemory writes data to the process memory at the specified address
	WriteMemory(addr ProcessMemoryAddress, data []byte) error

	// Close closes the handle and releases resources
	Close() error
}

// ReadMemory reads size bytes at addr, failing on partial reads
func ReadMemory(h Handle, addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error) {
	buf := make([]byte, size)
	n, err := h.ReadMemoryInto(addr, buf)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, ErrPartialRead
	}
	return buf, nil
}
