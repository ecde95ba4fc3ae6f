package expire

import (
	"encoding/hex"
	"log"

	"github.com/muesli/reflow/truncate"
	"github.com/pdok/tilexpire/ewkb"
)

// FromWKB expires all tiles touched by a geometry in (E)WKB wire format,
// as read from a database. featureID is only used in log messages.
// Geometries with an unknown header, and buffers that turn out to be
// truncated, are logged and dropped; they never fail the caller.
func (e *Expirer) FromWKB(wkb []byte, featureID int64) {
	if e.mapWidth == 0 {
		return
	}
	p := ewkb.NewParser(wkb)
	header := p.ReadHeader()
	if p.Err() != nil {
		logBadGeometry(featureID, wkb, p.Err())
		return
	}
	switch header {
	case ewkb.Point:
		e.fromWKBPoint(p)
	case ewkb.LineString:
		e.fromWKBLine(p)
	case ewkb.Polygon:
		e.fromWKBPolygon(p, featureID)
	case ewkb.MultiLineString:
		num := p.ReadLength()
		for i := uint32(0); i < num && p.Err() == nil; i++ {
			p.ReadHeader()
			e.fromWKBLine(p)
		}
	case ewkb.MultiPolygon:
		num := p.ReadLength()
		for i := uint32(0); i < num && p.Err() == nil; i++ {
			p.ReadHeader()
			e.fromWKBPolygon(p, featureID)
		}
	default:
		log.Printf("feature %d: unknown geometry type %d, cannot expire", featureID, header)
		return
	}
	if p.Err() != nil {
		logBadGeometry(featureID, wkb, p.Err())
	}
}

// FromWKBHex is FromWKB for a hex-encoded buffer, the form geometries
// usually take in a database text column.
func (e *Expirer) FromWKBHex(wkbHex string, featureID int64) {
	if e.mapWidth == 0 {
		return
	}
	buf, err := ewkb.FromHex(wkbHex)
	if err != nil {
		log.Printf("feature %d: cannot expire geometry %s: %v", featureID,
			truncate.StringWithTail(wkbHex, 64, "..."), err)
		return
	}
	e.FromWKB(buf, featureID)
}

func logBadGeometry(featureID int64, wkb []byte, err error) {
	log.Printf("feature %d: cannot expire geometry %s: %v", featureID,
		truncate.StringWithTail(hex.EncodeToString(wkb), 64, "..."), err)
}

func (e *Expirer) fromWKBPoint(p *ewkb.Parser) {
	x, y := p.ReadPoint()
	if p.Err() != nil {
		return
	}
	e.FromPoint(x, y)
}

func (e *Expirer) fromWKBLine(p *ewkb.Parser) {
	size := p.ReadLength()
	if size == 0 || p.Err() != nil {
		return
	}
	if size == 1 {
		e.fromWKBPoint(p)
		return
	}
	prevX, prevY := p.ReadPoint()
	for i := uint32(1); i < size; i++ {
		curX, curY := p.ReadPoint()
		if p.Err() != nil {
			return
		}
		e.FromLineLonLat(prevX, prevY, curX, curY)
		prevX, prevY = curX, curY
	}
}

func (e *Expirer) fromWKBPolygon(p *ewkb.Parser, featureID int64) {
	numRings := p.ReadLength()
	if numRings == 0 || p.Err() != nil {
		return
	}
	start := p.SavePos()

	// First pass: the bounding box of the outer ring, in input coordinates.
	numPt := p.ReadLength()
	initX, initY := p.ReadPoint()
	if p.Err() != nil {
		return
	}
	bboxMin := [2]float64{initX, initY}
	bboxMax := bboxMin
	for i := uint32(1); i < numPt; i++ {
		x, y := p.ReadPoint()
		if p.Err() != nil {
			return
		}
		bboxMin[0] = min(bboxMin[0], x)
		bboxMin[1] = min(bboxMin[1], y)
		bboxMax[0] = max(bboxMax[0], x)
		bboxMax[1] = max(bboxMax[1], y)
	}
	p.Rewind(start)

	// Second pass: the rings themselves.
	rings := make([][][2]float64, 0, numRings)
	for r := uint32(0); r < numRings; r++ {
		n := p.ReadLength()
		if p.Err() != nil {
			return
		}
		var ring [][2]float64
		for i := uint32(0); i < n; i++ {
			x, y := p.ReadPoint()
			if p.Err() != nil {
				return
			}
			ring = append(ring, [2]float64{x, y})
		}
		rings = append(rings, ring)
	}
	e.fromPolygonRings(rings, bboxMin, bboxMax, featureID)
}
