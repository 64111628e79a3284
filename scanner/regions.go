package scanner

import (
	"fmt"

	"gomemscan/process"
)

// MemoryRegion is one accessible, committed range of the target's address space
type MemoryRegion struct {
	Base    process.ProcessMemoryAddress
	Size    process.ProcessMemorySize
	Protect process.Protection
}

func (r MemoryRegion) End() process.ProcessMemoryAddress {
	return r.Base + process.ProcessMemoryAddress(r.Size)
}

func (r MemoryRegion) String() string {
	return fmt.Sprintf("[%s] Size: %d Protect: %s", r.Base.ToString(), uint(r.Size), r.Protect)
}

// Info converts the region back to a region query answer
func (r MemoryRegion) Info() process.RegionInfo {
	return process.RegionInfo{Base: r.Base, Size: r.Size, State: process.MemCommitted, Protect: r.Protect}
}

// isCataloged is the filter applied to every region query answer
func isCataloged(info process.RegionInfo) bool {
	return info.State == process.MemCommitted && info.Size > 0 && info.Protect.IsAccessible()
}

// ScanRegions replaces the region catalog by walking the target's address
// space from 0 upward. Whatever error ends the walk, be it the end of the
// address space or a failing handle, simply ends the catalog.
func (s *Session[T]) ScanRegions() {
	s.regions = nil

	if s.handle == nil {
		s.log.Warn("ScanRegions without a target")
		return
	}

	if err := s.handle.UpdateMemoryMap(); err != nil {
		s.log.Warn("Failed to refresh memory map: ", err)
		return
	}

	var regions []MemoryRegion
	var addr process.ProcessMemoryAddress
	for {
		info, err := s.handle.QueryRegion(addr)
		if err != nil {
			s.log.Debugln("Region walk ended at", addr.ToString(), err)
			break
		}

		if isCataloged(info) {
			regions = append(regions, MemoryRegion{
				Base:    info.Base,
				Size:    info.Size,
				Protect: info.Protect,
			})
		}

		next := info.End()
		if info.Size == 0 || next <= addr {
			break
		}
		addr = next
	}

	s.regions = regions
	s.log.Infoln("Cataloged", len(regions), "regions")
}

// PrintRegions lists the region catalog
func (s *Session[T]) PrintRegions() {
	w := s.cfg.Output
	fmt.Fprintln(w, "Scanned region count:", len(s.regions))
	for _, region := range s.regions {
		fmt.Fprintln(w, region.String())
	}
}
