package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_Kinds(t *testing.T) {
	for _, name := range KindNames() {
		s, err := NewSession(name, WithOutput(nil))
		require.NoError(t, err, name)

		canonical, err := CanonicalKind(name)
		require.NoError(t, err)
		assert.Equal(t, canonical, s.Kind(), name)
	}

	s, err := NewSession("int")
	require.NoError(t, err)
	assert.Equal(t, "int32", s.Kind())

	_, err = NewSession("float32")
	assert.Error(t, err)
	_, err = CanonicalKind("float32")
	assert.Error(t, err)
}

func TestEncodeValue(t *testing.T) {
	b, err := EncodeValue("uint16", "0x1234")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x34, 0x12}, b)

	_, err = EncodeValue("int8", "300")
	assert.Error(t, err)

	_, err = EncodeValue("double", "1")
	assert.Error(t, err)
}

func TestValueSession_TextRoundTrip(t *testing.T) {
	target := newTarget(t, testRegion{addr: 0x4000, size: 0x100, perms: "rw-p", ints: map[uint64]int32{0x4010: -5}})

	s, err := NewSession("int", WithOutput(nil))
	require.NoError(t, err)
	s.Setup(target.GetPID(), target)
	s.ScanRegions()

	require.NoError(t, s.SearchText("-5"))
	assert.Equal(t, 1, s.ScannedCount())

	assert.Error(t, s.FilterText("nope"))
	assert.Equal(t, 1, s.ScannedCount())

	require.NoError(t, s.FilterText("-5"))
	assert.Equal(t, 1, s.ScannedCount())
}
