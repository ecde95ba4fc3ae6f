package expire

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/tilexpire/ewkb"
	"github.com/pdok/tilexpire/reproj"
)

// wkbWriter builds little-endian WKB buffers for tests.
type wkbWriter struct {
	buf bytes.Buffer
}

func (w *wkbWriter) header(geomType uint32) *wkbWriter {
	w.buf.WriteByte(1)
	binary.Write(&w.buf, binary.LittleEndian, geomType)
	return w
}

func (w *wkbWriter) length(n uint32) *wkbWriter {
	binary.Write(&w.buf, binary.LittleEndian, n)
	return w
}

func (w *wkbWriter) points(pts ...[2]float64) *wkbWriter {
	for _, pt := range pts {
		binary.Write(&w.buf, binary.LittleEndian, pt[0])
		binary.Write(&w.buf, binary.LittleEndian, pt[1])
	}
	return w
}

func (w *wkbWriter) ring(pts ...[2]float64) *wkbWriter {
	w.length(uint32(len(pts)) + 1)
	w.points(pts...)
	w.points(pts[0])
	return w
}

func (w *wkbWriter) bytes() []byte {
	return w.buf.Bytes()
}

// earthCircumference is the width of the Mercator map in meters.
const earthCircumference = 40075016.68

func TestFromWKBPoint(t *testing.T) {
	e := newMercExpirer(t, 2)
	wkb := (&wkbWriter{}).header(ewkb.Point).points([2]float64{0.1, 0.1}).bytes()
	e.FromWKB(wkb, 1)
	assert.ElementsMatch(t, [][3]uint32{
		{2, 1, 1}, {2, 1, 2}, {2, 2, 1}, {2, 2, 2},
	}, drain(t, e, 2))
}

func TestFromWKBLine(t *testing.T) {
	e := newMercExpirer(t, 3)
	wkb := (&wkbWriter{}).header(ewkb.LineString).length(2).
		points([2]float64{-7000000, 0}, [2]float64{7000000, 0}).bytes()
	e.FromWKB(wkb, 1)
	assert.ElementsMatch(t, [][3]uint32{
		{3, 2, 3}, {3, 3, 3}, {3, 4, 3}, {3, 5, 3},
		{3, 2, 4}, {3, 3, 4}, {3, 4, 4}, {3, 5, 4},
	}, drain(t, e, 3))
}

func TestFromWKBLineSingleVertexIsAPoint(t *testing.T) {
	e := newMercExpirer(t, 2)
	wkb := (&wkbWriter{}).header(ewkb.LineString).length(1).
		points([2]float64{0.1, 0.1}).bytes()
	e.FromWKB(wkb, 1)
	assert.Len(t, drain(t, e, 2), 4)
}

func TestFromWKBPolygon(t *testing.T) {
	// a square spanning tiles 2..6 on both axes at z3 expires, with the
	// buffer, the full 6x6 block of columns 1..6
	quarter := earthCircumference / 4
	proj, err := reproj.New("EPSG:3857")
	require.NoError(t, err)
	e, err := New(3, earthCircumference, proj)
	require.NoError(t, err)
	wkb := (&wkbWriter{}).header(ewkb.Polygon).length(1).
		ring([2]float64{-quarter, -quarter}, [2]float64{quarter, -quarter},
			[2]float64{quarter, quarter}, [2]float64{-quarter, quarter}).bytes()
	e.FromWKB(wkb, 1)

	var want [][3]uint32
	for x := uint32(1); x <= 6; x++ {
		for y := uint32(1); y <= 6; y++ {
			want = append(want, [3]uint32{3, x, y})
		}
	}
	assert.ElementsMatch(t, want, drain(t, e, 3))
}

func TestFromWKBPolygonEvilBboxFallsBackToLines(t *testing.T) {
	// wider than maxBbox: only the rings are expired, not the interior
	e := newMercExpirer(t, 5)
	wkb := (&wkbWriter{}).header(ewkb.Polygon).length(1).
		ring([2]float64{0, 0}, [2]float64{100000, 0},
			[2]float64{100000, 100000}, [2]float64{0, 100000}).bytes()
	e.FromWKB(wkb, 1)
	assert.ElementsMatch(t, [][3]uint32{
		{5, 15, 15}, {5, 15, 16}, {5, 16, 15}, {5, 16, 16},
	}, drain(t, e, 5))
}

func TestFromWKBPolygonDegenerateOuterRing(t *testing.T) {
	// The single-column fast path still covers the bounding box; the ring
	// walk is aborted, so nothing beyond that safe superset is expired.
	e := newMercExpirer(t, 3)
	wkb := (&wkbWriter{}).header(ewkb.Polygon).length(1).length(1).
		points([2]float64{1000, 1000}).bytes()
	e.FromWKB(wkb, 1)
	assert.ElementsMatch(t, [][3]uint32{
		{3, 3, 3}, {3, 3, 4}, {3, 4, 3}, {3, 4, 4},
	}, drain(t, e, 3))
}

func TestFromWKBMultiPolygon(t *testing.T) {
	sixteenth := earthCircumference / 16
	square := func(w *wkbWriter, cx, cy float64) {
		w.header(ewkb.Polygon).length(1).
			ring([2]float64{cx - 1000, cy - 1000}, [2]float64{cx + 1000, cy - 1000},
				[2]float64{cx + 1000, cy + 1000}, [2]float64{cx - 1000, cy + 1000})
	}
	w := (&wkbWriter{}).header(ewkb.MultiPolygon).length(2)
	square(w, -sixteenth, sixteenth)
	square(w, sixteenth, -sixteenth)

	e := newMercExpirer(t, 2)
	e.FromWKB(w.bytes(), 1)
	assert.ElementsMatch(t, [][3]uint32{
		{2, 1, 1}, {2, 2, 2},
	}, drain(t, e, 2))
}

func TestFromWKBUnknownGeometryType(t *testing.T) {
	e := newMercExpirer(t, 3)
	wkb := (&wkbWriter{}).header(99).points([2]float64{0, 0}).bytes()
	e.FromWKB(wkb, 1)
	assert.Empty(t, drain(t, e, 3))
}

func TestFromWKBTruncatedBuffer(t *testing.T) {
	e := newMercExpirer(t, 3)
	wkb := (&wkbWriter{}).header(ewkb.LineString).length(5).
		points([2]float64{0, 0}).bytes()
	e.FromWKB(wkb, 1)
	assert.Empty(t, drain(t, e, 3))
	assert.NotPanics(t, func() { e.FromWKB(nil, 2) })
}

func TestFromWKBHex(t *testing.T) {
	e := newMercExpirer(t, 2)
	// POINT(0.1 0.1), little endian
	e.FromWKBHex("01010000009A9999999999B93F9A9999999999B93F", 1)
	assert.Len(t, drain(t, e, 2), 4)
	e.FromWKBHex("not hex", 2)
	assert.Empty(t, drain(t, e, 2))
}
