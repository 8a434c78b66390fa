package filter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/hdf5kit/internal/message"
)

func sample(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 7)
	}
	return b
}

func TestDeflateRoundTrip(t *testing.T) {
	for _, level := range []uint32{1, 6, 9} {
		f := NewDeflate([]uint32{level})
		in := sample(4096)
		enc, err := f.Encode(in)
		require.NoError(t, err)
		assert.Less(t, len(enc), len(in))
		dec, err := f.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, in, dec)
	}
	assert.Equal(t, DefaultDeflateLevel, NewDeflate(nil).Level)

	_, err := NewDeflate(nil).Decode([]byte("not zlib"))
	assert.Error(t, err)
}

func TestShuffle(t *testing.T) {
	f := NewShuffle([]uint32{4}, 0)
	in := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	enc, err := f.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 5, 2, 6, 3, 7, 4, 8, 9}, enc)
	dec, err := f.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, in, dec)

	assert.Equal(t, 8, NewShuffle(nil, 8).ElemSize)
	one := NewShuffle(nil, 1)
	out, err := one.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFletcher32(t *testing.T) {
	in := []byte{1, 2, 3}
	enc, err := Fletcher32{}.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 0x02, 0x04, 0x04, 0x05}, enc)

	dec, err := Fletcher32{}.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, in, dec)

	swapped := append([]byte{1, 2, 3}, 0x05, 0x04, 0x04, 0x02)
	_, err = Fletcher32{}.Decode(swapped)
	assert.NoError(t, err)

	enc[0] ^= 0xff
	_, err = Fletcher32{}.Decode(enc)
	assert.ErrorContains(t, err, "checksum mismatch")

	_, err = Fletcher32{}.Decode([]byte{1})
	assert.Error(t, err)
}

func TestPipelineRoundTrip(t *testing.T) {
	fp := &message.FilterPipeline{Filters: []message.FilterInfo{
		{ID: message.FilterShuffle},
		{ID: message.FilterDeflate, ClientData: []uint32{4}},
		{ID: message.FilterFletcher32},
	}}
	p, err := NewPipeline(fp, 8)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())

	in := sample(8 * 100)
	enc, mask, err := p.Encode(in)
	require.NoError(t, err)
	assert.Zero(t, mask)
	dec, err := p.Decode(enc, mask)
	require.NoError(t, err)
	assert.Equal(t, in, dec)
}

func TestPipelineMask(t *testing.T) {
	fp := &message.FilterPipeline{Filters: []message.FilterInfo{
		{ID: message.FilterDeflate},
		{ID: message.FilterFletcher32},
	}}
	p, err := NewPipeline(fp, 1)
	require.NoError(t, err)

	in := sample(64)
	sum, err := Fletcher32{}.Encode(in)
	require.NoError(t, err)
	dec, err := p.Decode(sum, 0x1)
	require.NoError(t, err)
	assert.Equal(t, in, dec)
}

func TestPipelineOptionalAndUnsupported(t *testing.T) {
	opt := &message.FilterPipeline{Filters: []message.FilterInfo{
		{ID: 32001, Flags: message.FilterOptional},
		{ID: message.FilterShuffle, ClientData: []uint32{2}},
	}}
	p, err := NewPipeline(opt, 2)
	require.NoError(t, err)
	in := sample(10)
	enc, mask, err := p.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), mask)
	dec, err := p.Decode(enc, mask)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(in, dec))

	_, err = p.Decode(enc, 0)
	assert.Error(t, err)

	_, err = NewPipeline(&message.FilterPipeline{Filters: []message.FilterInfo{{ID: message.FilterSZIP}}}, 4)
	assert.ErrorContains(t, err, "szip")
}

func TestEmptyPipeline(t *testing.T) {
	p, err := NewPipeline(nil, 4)
	require.NoError(t, err)
	assert.True(t, p.Empty())
	in := []byte{1, 2}
	out, mask, err := p.Encode(in)
	require.NoError(t, err)
	assert.Zero(t, mask)
	assert.Equal(t, in, out)
}
