package scanner

import (
	"bytes"
	"encoding/binary"
	"testing"

	"gomemscan/process"
	"gomemscan/process_blob"
)

type testRegion struct {
	addr  uint64
	size  int
	perms string
	ints  map[uint64]int32 // absolute address -> value
}

func newTarget(t *testing.T, regions ...testRegion) *process_blob.ProcessDump {
	t.Helper()

	dump := process_blob.NewProcessDump()
	dump.PID = 4242
	dump.Name = "target"
	for _, r := range regions {
		data := make([]byte, r.size)
		for addr, v := range r.ints {
			binary.LittleEndian.PutUint32(data[addr-r.addr:], uint32(v))
		}
		dump.AddRegion(r.addr, r.perms, data)
	}
	return dump
}

func newTestSession[T Scalar](t *testing.T, h process.Handle, options ...Option) (*Session[T], *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	options = append([]Option{WithOutput(out)}, options...)
	s := New[T](options...)
	s.Setup(h.GetPID(), h)
	return s, out
}

func addresses[T Scalar](values []ScannedValue[T]) []process.ProcessMemoryAddress {
	out := make([]process.ProcessMemoryAddress, len(values))
	for i, v := range values {
		out[i] = v.Address
	}
	return out
}
