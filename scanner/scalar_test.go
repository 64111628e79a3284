package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidth(t *testing.T) {
	assert.Equal(t, 1, Width[int8]())
	assert.Equal(t, 1, Width[uint8]())
	assert.Equal(t, 2, Width[int16]())
	assert.Equal(t, 4, Width[int32]())
	assert.Equal(t, 4, Width[uint32]())
	assert.Equal(t, 8, Width[int64]())
	assert.Equal(t, 8, Width[uint64]())
}

func TestEncodeDecode_LittleEndian(t *testing.T) {
	assert.Equal(t, []byte{0xd2, 0x04, 0x00, 0x00}, Encode[int32](1234))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, Encode[int32](-1))
	assert.Equal(t, int32(-1), Decode[int32]([]byte{0xff, 0xff, 0xff, 0xff}))
	assert.Equal(t, int16(-2), Decode[int16]([]byte{0xfe, 0xff}))
	assert.Equal(t, uint64(1), Decode[uint64]([]byte{1, 0, 0, 0, 0, 0, 0, 0, 0xaa}))
	assert.Equal(t, int8(-128), Decode[int8](Encode[int8](-128)))
}

func TestParse(t *testing.T) {
	v, err := Parse[int32]("1234")
	require.NoError(t, err)
	assert.Equal(t, int32(1234), v)

	v, err = Parse[int32]("-0x10")
	require.NoError(t, err)
	assert.Equal(t, int32(-16), v)

	u, err := Parse[uint8]("0xff")
	require.NoError(t, err)
	assert.Equal(t, uint8(255), u)

	_, err = Parse[uint8]("256")
	assert.Error(t, err)

	_, err = Parse[uint32]("-1")
	assert.Error(t, err)

	_, err = Parse[int16]("forty")
	assert.ErrorContains(t, err, "int16")
}

func TestIsSigned(t *testing.T) {
	assert.True(t, isSigned[int8]())
	assert.True(t, isSigned[int64]())
	assert.False(t, isSigned[uint8]())
	assert.False(t, isSigned[uint64]())
}
