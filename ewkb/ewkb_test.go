package ewkb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePointLittleEndian(t *testing.T) {
	// POINT(1 2)
	buf, err := FromHex("0101000000000000000000F03F0000000000000040")
	require.NoError(t, err)
	p := NewParser(buf)
	assert.EqualValues(t, Point, p.ReadHeader())
	x, y := p.ReadPoint()
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 2.0, y)
	assert.NoError(t, p.Err())
}

func TestParsePointBigEndian(t *testing.T) {
	buf, err := FromHex("00000000013FF00000000000004000000000000000")
	require.NoError(t, err)
	p := NewParser(buf)
	assert.EqualValues(t, Point, p.ReadHeader())
	x, y := p.ReadPoint()
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 2.0, y)
	assert.NoError(t, p.Err())
}

func TestParseHeaderSkipsSRID(t *testing.T) {
	// header of a POLYGON with embedded SRID 3857, one ring of 17 points
	buf, err := FromHex("0103000020110F00000100000011000000")
	require.NoError(t, err)
	p := NewParser(buf)
	assert.EqualValues(t, Polygon, p.ReadHeader())
	assert.EqualValues(t, 1, p.ReadLength())
	assert.EqualValues(t, 17, p.ReadLength())
	assert.NoError(t, p.Err())
}

func TestParseRewind(t *testing.T) {
	buf, err := FromHex("010200000002000000000000000000F03F000000000000004000000000000008400000000000001040")
	require.NoError(t, err)
	p := NewParser(buf)
	assert.EqualValues(t, LineString, p.ReadHeader())
	pos := p.SavePos()
	assert.EqualValues(t, 2, p.ReadLength())
	x, _ := p.ReadPoint()
	assert.Equal(t, 1.0, x)
	p.Rewind(pos)
	assert.EqualValues(t, 2, p.ReadLength())
	x, y := p.ReadPoint()
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 2.0, y)
	x, y = p.ReadPoint()
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
	assert.NoError(t, p.Err())
}

func TestParseErrorsAreSticky(t *testing.T) {
	p := NewParser([]byte{1, 2, 3})
	p.ReadHeader()
	require.Error(t, p.Err())
	firstErr := p.Err()
	p.ReadLength()
	p.ReadPoint()
	assert.Equal(t, firstErr, p.Err())
}

func TestParseInvalidByteOrder(t *testing.T) {
	p := NewParser([]byte{7, 0, 0, 0, 0})
	p.ReadHeader()
	assert.ErrorContains(t, p.Err(), "byte order")
}

func TestFromHexInvalid(t *testing.T) {
	_, err := FromHex("zz")
	assert.Error(t, err)
}
