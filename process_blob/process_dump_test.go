package process_blob

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomemscan/process"
)

func sampleDump() *ProcessDump {
	p := NewProcessDump()
	p.PID = 77
	p.Name = "sample"
	p.AddRegion(0x2000, "r--p", bytes.Repeat([]byte{0xbb}, 0x100))
	p.AddRegion(0x1000, "rw-p", bytes.Repeat([]byte{0xaa}, 0x1000))
	p.AddRegion(0x4000, "---p", make([]byte, 0x100))
	return p
}

func TestReadMemoryInto(t *testing.T) {
	p := sampleDump()

	buf := make([]byte, 8)
	n, err := p.ReadMemoryInto(0x1ffc, buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte{0xaa, 0xaa, 0xaa, 0xaa, 0xbb, 0xbb, 0xbb, 0xbb}, buf)

	n, err = p.ReadMemoryInto(0x20f8, make([]byte, 16))
	assert.Equal(t, 8, n)
	assert.ErrorIs(t, err, process.ErrPartialRead)

	n, err = p.ReadMemoryInto(0x3000, make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)

	// mapped without read access
	n, err = p.ReadMemoryInto(0x4000, make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.Error(t, err)
}

func TestMarkUnreadable(t *testing.T) {
	p := sampleDump()
	p.MarkUnreadable(0x1100, 0x100)

	n, err := p.ReadMemoryInto(0x1000, make([]byte, 0x200))
	assert.Equal(t, 0x100, n)
	assert.ErrorIs(t, err, process.ErrPartialRead)

	n, _ = p.ReadMemoryInto(0x1180, make([]byte, 4))
	assert.Equal(t, 0, n)

	n, err = p.ReadMemoryInto(0x1200, make([]byte, 4))
	assert.Equal(t, 4, n)
	assert.NoError(t, err)
}

func TestWriteMemory(t *testing.T) {
	p := sampleDump()

	require.NoError(t, p.WriteMemory(0x1010, []byte{1, 2, 3, 4}))
	got, err := process.ReadMemory(p, 0x1010, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)

	assert.Error(t, p.WriteMemory(0x2000, []byte{1}))
	assert.ErrorIs(t, p.WriteMemory(0x9000, []byte{1}), process.ErrAddressNotMapped)
	assert.Error(t, p.WriteMemory(0x1ffe, []byte{1, 2, 3, 4}))
}

func TestClosedDump(t *testing.T) {
	p := sampleDump()
	require.NoError(t, p.Close())

	_, err := p.ReadMemoryInto(0x1000, make([]byte, 4))
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
	assert.ErrorIs(t, p.UpdateMemoryMap(), process.ErrProcessNotOpen)
	_, err = p.QueryRegion(0)
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)

	h, err := DumpOpener{Dump: p}.Open(77)
	require.NoError(t, err)
	_, err = h.QueryRegion(0)
	assert.NoError(t, err)
}

func TestSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	p := sampleDump()
	delete(p.Blobs, 0x4000)
	require.NoError(t, p.Save(dir))

	_, err := os.Stat(filepath.Join(dir, "blob_0x1000_4096.bin"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "blob_0x4000_256.bin"))
	assert.True(t, os.IsNotExist(err))

	loaded, err := LoadProcessDump(dir)
	require.NoError(t, err)
	assert.Equal(t, process.ProcessID(77), loaded.PID)
	assert.Equal(t, "sample", loaded.Name)
	assert.Equal(t, p.MemoryMap, loaded.MemoryMap)
	assert.Equal(t, p.Blobs, loaded.Blobs)

	_, err = LoadProcessDump(t.TempDir())
	assert.ErrorContains(t, err, "failed to read metadata")
}

func TestCapture(t *testing.T) {
	src := sampleDump()
	src.MarkUnreadable(0x2080, 0x80)

	regions := []process.RegionInfo{
		{Base: 0x2000, Size: 0x100, State: process.MemCommitted, Protect: process.ProtectRead},
		{Base: 0x1000, Size: 0x1000, State: process.MemCommitted, Protect: process.ProtectRead | process.ProtectWrite},
		{Base: 0x4000, Size: 0x100, State: process.MemCommitted, Protect: process.ProtectRead},
	}
	d := Capture(src, "copy", regions)

	assert.Equal(t, process.ProcessID(77), d.GetPID())
	require.Len(t, d.MemoryMap, 3)
	assert.Equal(t, uint64(0x1000), d.MemoryMap[0].Address)
	assert.Equal(t, "rw-p", d.MemoryMap[0].Perms)
	assert.Len(t, d.Blobs[0x1000], 0x1000)
	assert.Len(t, d.Blobs[0x2000], 0x80)
	_, ok := d.Blobs[0x4000]
	assert.False(t, ok)
}

func TestDumpOpener(t *testing.T) {
	o := DumpOpener{Dump: sampleDump()}

	_, err := o.Open(78)
	assert.Error(t, err)
	assert.True(t, o.IsAlive(77))
	assert.False(t, o.IsAlive(78))

	found, err := o.FindProcessByName("sample")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, process.ProcessID(77), found[0].PID)

	found, err = o.FindProcessByName("other")
	require.NoError(t, err)
	assert.Empty(t, found)
}
