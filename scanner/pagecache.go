package scanner

import (
	"gomemscan/process"

	"github.com/hashicorp/golang-lru/simplelru"
)

// pageCache keeps the last few blocks a filter worker fetched from the
// target, keyed by block-aligned address. It belongs to one worker and has
// no lock. Blocks whose read failed are not cached.
type pageCache struct {
	handle   process.Handle
	pageSize process.ProcessMemorySize
	blocks   *simplelru.LRU
	free     [][]byte // buffers of evicted blocks, reused on the next miss

	hits, misses int
}

func newPageCache(handle process.Handle, pageSize process.ProcessMemorySize, entries int) *pageCache {
	c := &pageCache{
		handle:   handle,
		pageSize: pageSize,
	}

	// NewLRU only fails for a non-positive size, which Config.normalize rules out
	c.blocks, _ = simplelru.NewLRU(entries, func(_ interface{}, value interface{}) {
		b := value.([]byte)
		c.free = append(c.free, b[:cap(b)])
	})

	return c
}

// read returns the width bytes at addr, or false if they could not be read
func (c *pageCache) read(addr process.ProcessMemoryAddress, width int) ([]byte, bool) {
	base := addr.AlignDown(c.pageSize)
	offset := int(addr - base)

	if offset+width > int(c.pageSize) {
		// straddles two blocks
		return c.direct(addr, width)
	}

	block, ok := c.block(base)
	if !ok || offset+width > len(block) {
		// the block start or its tail is not readable, addr itself may be
		return c.direct(addr, width)
	}
	return block[offset : offset+width], true
}

// direct reads width bytes at addr past the cache
func (c *pageCache) direct(addr process.ProcessMemoryAddress, width int) ([]byte, bool) {
	buf := make([]byte, width)
	n, _ := c.handle.ReadMemoryInto(addr, buf)
	return buf, n == width
}

func (c *pageCache) block(base process.ProcessMemoryAddress) ([]byte, bool) {
	if v, ok := c.blocks.Get(base); ok {
		c.hits++
		return v.([]byte), true
	}
	c.misses++

	var buf []byte
	if k := len(c.free); k > 0 {
		buf, c.free = c.free[k-1], c.free[:k-1]
	} else {
		buf = make([]byte, c.pageSize)
	}

	n, _ := c.handle.ReadMemoryInto(base, buf)
	if n <= 0 {
		c.free = append(c.free, buf)
		return nil, false
	}

	c.blocks.Add(base, buf[:n])
	return buf[:n], true
}
