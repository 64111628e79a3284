package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomemscan/process"
)

func TestPageCache_HitsWithinBlock(t *testing.T) {
	target := newTarget(t, testRegion{addr: 0x10000, size: 0x2000, perms: "rw-p", ints: map[uint64]int32{
		0x10004: 11,
		0x10ff0: 22,
		0x11000: 33,
	}})
	cache := newPageCache(target, 0x1000, 4)

	for _, tc := range []struct {
		addr process.ProcessMemoryAddress
		want int32
	}{
		{0x10004, 11},
		{0x10ff0, 22},
		{0x11000, 33},
		{0x10004, 11},
	} {
		data, ok := cache.read(tc.addr, 4)
		require.True(t, ok, tc.addr.ToString())
		assert.Equal(t, tc.want, Decode[int32](data), tc.addr.ToString())
	}

	assert.Equal(t, 2, cache.misses)
	assert.Equal(t, 2, cache.hits)
}

func TestPageCache_EvictionKeepsValuesCorrect(t *testing.T) {
	ints := map[uint64]int32{}
	for i := uint64(0); i < 8; i++ {
		ints[0x20000+i*0x100] = int32(i + 1)
	}
	target := newTarget(t, testRegion{addr: 0x20000, size: 0x800, perms: "rw-p", ints: ints})
	cache := newPageCache(target, 0x100, 2)

	for round := 0; round < 3; round++ {
		for i := uint64(0); i < 8; i++ {
			data, ok := cache.read(process.ProcessMemoryAddress(0x20000+i*0x100), 4)
			require.True(t, ok)
			assert.Equal(t, int32(i+1), Decode[int32](data))
		}
	}
	assert.Equal(t, 24, cache.misses)
	assert.LessOrEqual(t, len(cache.free), 2)
}

func TestPageCache_FailedReadIsNotCached(t *testing.T) {
	target := newTarget(t, testRegion{addr: 0x1000, size: 0x1000, perms: "rw-p", ints: map[uint64]int32{0x1010: 9}})
	target.MarkUnreadable(0x1000, 0x1000)
	cache := newPageCache(target, 0x1000, 4)

	_, ok := cache.read(0x1010, 4)
	assert.False(t, ok)
	_, ok = cache.read(0x1010, 4)
	assert.False(t, ok)
	assert.Equal(t, 2, cache.misses)
	assert.Equal(t, 0, cache.blocks.Len())
}

func TestPageCache_ShortBlockAtRegionEnd(t *testing.T) {
	// the block read stops at 0x1080, the end of the mapping
	target := newTarget(t, testRegion{addr: 0x1000, size: 0x80, perms: "rw-p", ints: map[uint64]int32{0x107c: 5}})
	cache := newPageCache(target, 0x1000, 4)

	data, ok := cache.read(0x107c, 4)
	require.True(t, ok)
	assert.Equal(t, int32(5), Decode[int32](data))

	_, ok = cache.read(0x1080, 4)
	assert.False(t, ok)
}

func TestPageCache_StraddlingRead(t *testing.T) {
	target := newTarget(t, testRegion{addr: 0x1000, size: 0x2000, perms: "rw-p"})
	require.NoError(t, target.WriteMemory(0x1ffc, Encode[int64](-77)))
	cache := newPageCache(target, 0x1000, 4)

	data, ok := cache.read(0x1ffc, 8)
	require.True(t, ok)
	assert.Equal(t, int64(-77), Decode[int64](data))
	assert.Equal(t, 0, cache.misses+cache.hits)
}

func TestPageCache_UnreadableBlockStart(t *testing.T) {
	target := newTarget(t, testRegion{addr: 0x1800, size: 0x100, perms: "rw-p", ints: map[uint64]int32{0x1810: 7}})
	cache := newPageCache(target, 0x1000, 4)

	data, ok := cache.read(0x1810, 4)
	require.True(t, ok)
	assert.Equal(t, int32(7), Decode[int32](data))
	assert.Equal(t, 0, cache.blocks.Len())

	_, ok = cache.read(0x1900, 4)
	assert.False(t, ok)
}
