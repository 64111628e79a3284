package process_blob

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gomemscan/process"
	"gomemscan/process/memory_map"
)

const (
	metadataFile  = "metadata.json"
	memoryMapFile = "process_memory_map.json"
)

type metadata struct {
	PID  process.ProcessID `json:"pid"`
	Name string            `json:"name"`
}

func blobFilename(dirname string, region memory_map.MemoryMapItem) string {
	return filepath.Join(dirname, fmt.Sprintf("blob_0x%x_%d.bin", region.Address, region.Size))
}

// LoadProcessDump reads a dump directory written by Save
func LoadProcessDump(dirname string) (*ProcessDump, error) {
	p := NewProcessDump()
	if err := p.Load(dirname); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *ProcessDump) Load(dirname string) error {
	metadataBytes, err := os.ReadFile(filepath.Join(dirname, metadataFile))
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	var md metadata
	if err := json.Unmarshal(metadataBytes, &md); err != nil {
		return fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	mmBytes, err := os.ReadFile(filepath.Join(dirname, memoryMapFile))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	var mm []memory_map.MemoryMapItem
	if err := json.Unmarshal(mmBytes, &mm); err != nil {
		return fmt.Errorf("failed to unmarshal memory map: %w", err)
	}
	memory_map.Sort(mm)

	blobs := make(map[uint64][]byte, len(mm))
	for _, region := range mm {
		data, err := os.ReadFile(blobFilename(dirname, region))
		if errors.Is(err, os.ErrNotExist) {
			continue // region was not readable when the dump was taken
		}
		if err != nil {
			return fmt.Errorf("failed to read blob for region 0x%x: %w", region.Address, err)
		}
		blobs[region.Address] = data
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.PID = md.PID
	p.Name = md.Name
	p.MemoryMap = mm
	p.Blobs = blobs
	p.closed = false
	return nil
}

// Save writes the dump as metadata, memory map and one file per region with data
func (p *ProcessDump) Save(dirname string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := os.MkdirAll(dirname, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	metadataJSON, err := json.MarshalIndent(metadata{PID: p.PID, Name: p.Name}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, metadataFile), metadataJSON, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	memoryMapJSON, err := json.MarshalIndent(p.MemoryMap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal memory map: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, memoryMapFile), memoryMapJSON, 0644); err != nil {
		return fmt.Errorf("failed to write memory map file: %w", err)
	}

	for _, region := range p.MemoryMap {
		data, ok := p.Blobs[region.Address]
		if !ok {
			continue
		}
		if err := os.WriteFile(blobFilename(dirname, region), data, 0644); err != nil {
			return fmt.Errorf("failed to write memory file for region at 0x%x: %w", region.Address, err)
		}
	}

	return nil
}

// Capture copies the given regions out of a live handle. Regions that cannot
// be read at all are kept in the memory map without data; partially readable
// ones keep the readable prefix.
func Capture(h process.Handle, name string, regions []process.RegionInfo) *ProcessDump {
	p := NewProcessDump()
	p.PID = h.GetPID()
	p.Name = name

	for _, r := range regions {
		item := memory_map.MemoryMapItem{
			Address: uint64(r.Base),
			Size:    uint(r.Size),
			Perms:   memory_map.ProtectionToPerms(r.Protect),
		}
		p.MemoryMap = append(p.MemoryMap, item)

		buf := make([]byte, r.Size)
		n, _ := h.ReadMemoryInto(r.Base, buf)
		if n > 0 {
			p.Blobs[item.Address] = buf[:n]
		}
	}

	memory_map.Sort(p.MemoryMap)
	return p
}

// DumpOpener hands out an already loaded dump as the handle for any PID
type DumpOpener struct {
	Dump *ProcessDump
}

var _ process.Opener = DumpOpener{}

func (o DumpOpener) Open(pid process.ProcessID) (process.Handle, error) {
	if pid != o.Dump.PID {
		return nil, fmt.Errorf("dump holds process %d, not %d", o.Dump.PID, pid)
	}

	o.Dump.mu.Lock()
	o.Dump.closed = false
	o.Dump.mu.Unlock()

	return o.Dump, nil
}

func (o DumpOpener) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	if name != o.Dump.Name {
		return nil, nil
	}
	return []process.ProcessInfo{{PID: o.Dump.PID, Name: o.Dump.Name, State: process.ProcessStopped}}, nil
}

func (o DumpOpener) IsAlive(pid process.ProcessID) bool {
	return pid == o.Dump.PID
}
