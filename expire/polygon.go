package expire

import "log"

// fromCoordsLine expires a linestring given as raw input-CRS vertices.
// A single vertex degenerates into a point, an empty one into nothing.
func (e *Expirer) fromCoordsLine(points [][2]float64) {
	if len(points) == 0 {
		return
	}
	if len(points) == 1 {
		e.FromPoint(points[0][0], points[0][1])
		return
	}
	prev := points[0]
	for _, cur := range points[1:] {
		e.FromLineLonLat(prev[0], prev[1], cur[0], cur[1])
		prev = cur
	}
}

// closeRing appends the first vertex when a ring does not repeat it, so
// the segment walk always includes the closing segment. WKB rings come
// closed already; go-spatial/geom rings usually do not.
func closeRing(ring [][2]float64) [][2]float64 {
	if len(ring) >= 2 && ring[0] != ring[len(ring)-1] {
		return append(ring[:len(ring):len(ring)], ring[0])
	}
	return ring
}

// fromPolygonRings expires the interior of a polygon plus the buffer
// around it. rings[0] is the outer ring; bboxMin/bboxMax is the outer
// ring's bounding box in input coordinates (ring vertices may or may not
// repeat the first point; both are handled).
func (e *Expirer) fromPolygonRings(rings [][][2]float64, bboxMin, bboxMax [2]float64, featureID int64) {
	if e.mapWidth == 0 || len(rings) == 0 {
		return
	}
	closed := make([][][2]float64, len(rings))
	for i := range rings {
		closed[i] = closeRing(rings[i])
	}
	rings = closed

	// Bounding boxes wider than this are distrusted: they are usually
	// coordinate noise or a polygon wrapping the globe, which would have to
	// be split at the antimeridian to reproject correctly. Expiring their
	// rings as plain lines is cheap and covers everything that matters.
	if bboxMax[0]-bboxMin[0] > e.maxBbox || bboxMax[1]-bboxMin[1] > e.maxBbox {
		log.Printf("feature %d: polygon bbox exceeds %v, expiring rings as lines", featureID, e.maxBbox)
		for _, ring := range rings {
			e.fromCoordsLine(ring)
		}
		return
	}

	// Reproject the bounding box corners. min and max y swap because the
	// input y axis points north and the tile-space y axis points south.
	minX, minY := e.proj.CoordsToTile(bboxMin[0], bboxMax[1], e.mapWidth)
	maxX, maxY := e.proj.CoordsToTile(bboxMax[0], bboxMin[1], e.mapWidth)

	// A polygon that never crosses a tile column border is covered by its
	// buffered bounding box. The scan below still runs; it only re-adds
	// tiles from the same box, which the dirty set absorbs.
	if int64(minX) == int64(maxX) {
		e.FromBbox(minX, minY, maxX, maxY)
	}

	tiles := newIntersectingTiles(minX, maxX, e.mapWidth, Leeway)
	for ringIdx, ring := range rings {
		if len(ring) <= 1 && ringIdx == 0 {
			// outer ring degenerated, drop the whole polygon
			return
		}
		if len(ring) <= 3 {
			// degenerate rings cannot add expired tiles
			continue
		}
		ax, ay := e.proj.CoordsToTile(ring[0][0], ring[0][1], e.mapWidth)
		for _, pt := range ring[1:] {
			bx, by := e.proj.CoordsToTile(pt[0], pt[1], e.mapWidth)
			tiles.evaluateSegment(ax, ay, bx, by, ringIdx == 0)
			ax, ay = bx, by
		}
	}

	tiles.sortBounds()
	for {
		for tiles.columnHasIntervals() {
			yMin, yMax, ok := tiles.nextPair()
			if !ok {
				continue
			}
			col := tiles.currentColumn()
			e.fromBboxInts(col, int64(yMin), col, int64(yMax))
		}
		if !tiles.moveToNextColumn() {
			break
		}
	}
}
