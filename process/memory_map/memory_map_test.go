package memory_map

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomemscan/process"
)

const sampleMaps = `55d0c6a00000-55d0c6a02000 r--p 00000000 08:01 1311 /usr/bin/cat
55d0c6a02000-55d0c6a07000 r-xp 00002000 08:01 1311 /usr/bin/cat
55d0c6c0c000-55d0c6c2d000 rw-p 00000000 00:00 0 [heap]
7f2a4c000000-7f2a4c021000 rw-p 00000000 00:00 0
7f2a4c021000-7f2a50000000 ---p 00000000 00:00 0
7ffd3e5f0000-7ffd3e611000 rw-p 00000000 00:00 0 [stack]
garbage line
7ffd3e700000-7ffd3e6f0000 r--p 00000000 00:00 0
7ffd3e7f8000-7ffd3e7fa000 r-xp 00000000 00:00 0 /path/with a space
`

func TestParseMemoryMap(t *testing.T) {
	mm, err := ParseMemoryMap(strings.NewReader(sampleMaps))
	require.NoError(t, err)
	require.Len(t, mm, 7)

	assert.Equal(t, MemoryMapItem{Address: 0x55d0c6a00000, Size: 0x2000, Perms: "r--p", Path: "/usr/bin/cat"}, mm[0])
	assert.Equal(t, "[heap]", mm[2].Path)
	assert.Equal(t, "", mm[3].Path)
	assert.Equal(t, "/path/with a space", mm[6].Path)
	assert.Equal(t, uint(0x21000), mm[5].Size)
}

func TestPermsToProtection(t *testing.T) {
	tests := []struct {
		perms string
		want  process.Protection
		state process.MemoryState
	}{
		{"r--p", process.ProtectRead, process.MemCommitted},
		{"rw-p", process.ProtectRead | process.ProtectWrite, process.MemCommitted},
		{"r-xp", process.ProtectRead | process.ProtectExecute, process.MemCommitted},
		{"rwxs", process.ProtectRead | process.ProtectWrite | process.ProtectExecute, process.MemCommitted},
		{"--xp", process.ProtectExecute, process.MemCommitted},
		{"---p", process.ProtectNoAccess, process.MemReserved},
		{"", process.ProtectNoAccess, process.MemReserved},
	}

	for _, tt := range tests {
		t.Run(tt.perms, func(t *testing.T) {
			item := MemoryMapItem{Perms: tt.perms}
			assert.Equal(t, tt.want, PermsToProtection(tt.perms))
			assert.Equal(t, tt.state, item.State())
			if tt.perms != "" {
				assert.Equal(t, tt.perms[:3]+"p", ProtectionToPerms(tt.want))
			}
		})
	}
}

func TestQueryRegionWalk(t *testing.T) {
	mm := []MemoryMapItem{
		{Address: 0x3000, Size: 0x1000, Perms: "r--p"},
		{Address: 0x1000, Size: 0x1000, Perms: "rw-p"},
		{Address: 0x4000, Size: 0x2000, Perms: "---p"},
	}
	Sort(mm)

	var got []process.RegionInfo
	var addr process.ProcessMemoryAddress
	for {
		info, err := QueryRegion(addr, mm)
		if err != nil {
			assert.True(t, errors.Is(err, process.ErrNoMoreRegions))
			break
		}
		got = append(got, info)
		addr = info.End()
	}

	assert.Equal(t, []process.RegionInfo{
		{Base: 0x0, Size: 0x1000, State: process.MemFree},
		{Base: 0x1000, Size: 0x1000, State: process.MemCommitted, Protect: process.ProtectRead | process.ProtectWrite},
		{Base: 0x2000, Size: 0x1000, State: process.MemFree},
		{Base: 0x3000, Size: 0x1000, State: process.MemCommitted, Protect: process.ProtectRead},
		{Base: 0x4000, Size: 0x2000, State: process.MemReserved, Protect: process.ProtectNoAccess},
	}, got)
}

func TestQueryRegionInsideMapping(t *testing.T) {
	mm := []MemoryMapItem{{Address: 0x1000, Size: 0x1000, Perms: "rw-p"}}

	info, err := QueryRegion(0x1800, mm)
	require.NoError(t, err)
	assert.Equal(t, process.ProcessMemoryAddress(0x1000), info.Base)

	_, err = QueryRegion(0x2000, mm)
	assert.ErrorIs(t, err, process.ErrNoMoreRegions)

	_, err = QueryRegion(0, nil)
	assert.ErrorIs(t, err, process.ErrNoMoreRegions)
}

func TestIsValidAddress2(t *testing.T) {
	mm := []MemoryMapItem{
		{Address: 0x1000, Size: 0x1000, Perms: "rw-p"},
		{Address: 0x2000, Size: 0x1000, Perms: "r--p"},
	}

	assert.Nil(t, IsValidAddress2(0xfff, mm))
	assert.Equal(t, uint64(0x1000), IsValidAddress2(0x1fff, mm).Address)
	assert.Equal(t, uint64(0x2000), IsValidAddress2(0x2000, mm).Address)
	assert.Nil(t, IsValidAddress2(0x3000, mm))
}
