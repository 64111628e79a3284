package scanner

import (
	"fmt"
	"sync"

	"gomemscan/process"
)

// isSearchable drops execute-only and execute-read-write regions from value searches
func isSearchable(r MemoryRegion) bool {
	return !r.Protect.IsExecuteOnlyOrRWX()
}

// Search replaces the candidates with every Width[T]()-aligned address of the
// cataloged regions currently holding value. It blocks until all workers are
// done; the order of the results is unspecified.
func (s *Session[T]) Search(value T) {
	s.results.Clear()

	if len(s.regions) == 0 {
		fmt.Fprintln(s.cfg.Output, "No regions found")
		return
	}

	regions := make([]MemoryRegion, 0, len(s.regions))
	for _, r := range s.regions {
		if isSearchable(r) {
			regions = append(regions, r)
		}
	}

	ranges := partition(len(regions), s.cfg.Workers)
	s.log.Infoln("Searching", len(regions), "regions for", value, "with", len(ranges), "workers")

	var wg sync.WaitGroup
	for _, wr := range ranges {
		wg.Add(1)
		go func(slice []MemoryRegion) {
			defer wg.Done()
			s.searchSlice(slice, value)
		}(regions[wr.lo:wr.hi])
	}
	wg.Wait()

	s.log.Infoln("Search complete, found", s.results.Count(), "matches")
}

// searchSlice streams every region of slice through one chunk buffer
func (s *Session[T]) searchSlice(slice []MemoryRegion, value T) {
	width := Width[T]()
	chunk := s.cfg.ChunkSize
	buf := make([]byte, chunk)
	hits := newCollector(s.results, s.cfg.BatchSize, s.cfg.FlushThreshold)

	for _, region := range slice {
		addr, end := region.Base, region.End()
		for addr < end {
			want := chunk
			if remaining := process.ProcessMemorySize(end - addr); remaining < want {
				want = remaining
			}

			n, err := s.handle.ReadMemoryInto(addr, buf[:want])
			if n <= 0 {
				// nothing readable here; skip a whole chunk so the walk always ends
				s.log.Debugln("Failed to read memory at", addr.ToString(), err)
				next := addr + process.ProcessMemoryAddress(chunk)
				if next <= addr {
					break
				}
				addr = next
				continue
			}

			matchChunk(buf[:n], addr, width, value, hits)
			addr += process.ProcessMemoryAddress(n)
		}
	}

	hits.finish()
}

// matchChunk records every aligned value in data equal to value. base is the
// target address of data[0].
func matchChunk[T Scalar](data []byte, base process.ProcessMemoryAddress, width int, value T, hits *collector[T]) {
	w := process.ProcessMemoryAddress(width)
	start := int((w - base%w) % w)
	for off := start; off+width <= len(data); off += width {
		if Decode[T](data[off:off+width]) == value {
			hits.add(ScannedValue[T]{
				Value:   value,
				Address: base + process.ProcessMemoryAddress(off),
			})
		}
	}
}
