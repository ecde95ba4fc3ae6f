package expire

import "math"

// FromLineLonLat expires all tiles a line segment intersects, including
// the leeway buffer. Coordinates are in the source CRS. Segments spanning
// more than half the map are shorter the other way around the globe: they
// cross the 180th meridian and are split at it first.
func (e *Expirer) FromLineLonLat(x1, y1, x2, y2 float64) {
	if e.mapWidth == 0 {
		return
	}
	tileX1, tileY1 := e.proj.CoordsToTile(x1, y1, e.mapWidth)
	tileX2, tileY2 := e.proj.CoordsToTile(x2, y2, e.mapWidth)
	// the rasterizer walks from west to east
	if tileX1 > tileX2 {
		tileX1, tileX2 = tileX2, tileX1
		tileY1, tileY2 = tileY2, tileY1
	}
	mapWidth := float64(e.mapWidth)
	if tileX2-tileX1 > mapWidth/2 {
		if tileX2 == mapWidth && tileX1 == 0 {
			// The segment lies on the 180th meridian itself. Without this
			// special case the intercept theorem below divides by zero.
			e.expireLineSegment(0, tileY1, 0, tileY2)
			return
		}
		// Split at the intersection with the meridian. The intercept
		// theorem gives the y of the crossing from the x distance going
		// the short way around: (y2-y1)/(ySplit-y1) = (x2-x1)/(xSplit-x1).
		xDistance := mapWidth + tileX1 - tileX2
		ySplit := tileY1 + (tileY2-tileY1)*(tileX1/xDistance)
		e.expireLineSegment(0, ySplit, tileX1, tileY1)
		e.expireLineSegment(tileX2, tileY2, mapWidth, ySplit)
		return
	}
	e.expireLineSegment(tileX1, tileY1, tileX2, tileY2)
}

// expireLineSegment expires a west-to-east segment in tile-space plus a
// perpendicular buffer of Leeway tile widths: the segment is replaced by
// two parallels offset along the unit normal, so tiles the feature merely
// grazes are still covered. Requires x1 <= x2.
func (e *Expirer) expireLineSegment(x1, y1, x2, y2 float64) {
	if x1 == x2 && y1 == y2 {
		// degenerated into a point
		return
	}
	// A segment that stays within one tile column, or is so close to
	// vertical that the incline computation would blow up, is treated as a
	// vertical line. The error for the almost-vertical case is negligible.
	if x2-x1 < 1 && (int64(x2) == int64(x1) || x2-x1 < 0.00000001) {
		if y2 < y1 {
			y1, y2 = y2, y1
		}
		xBufferWest := e.normaliseTileCoord(x1 - Leeway)
		e.expireVerticalLine(xBufferWest, y1, y2)
		// The east parallel only reaches different tiles when the buffer
		// crosses into the next column.
		xBufferEast := e.normaliseTileCoord(x1 + Leeway)
		if int64(xBufferWest) != int64(xBufferEast) {
			e.expireVerticalLine(xBufferEast, y1, y2)
		}
		return
	}
	segmentLength := math.Sqrt((y2-y1)*(y2-y1) + (x2-x1)*(x2-x1))
	xNorm := (x2 - x1) / segmentLength
	yNorm := (y2 - y1) / segmentLength
	xBuffer := Leeway * xNorm
	yBuffer := Leeway * yNorm
	// normal vector to the right: (-y,x), to the left: (y,-x); both ends
	// are also extended lengthwise by the buffer
	e.expireLine(x1-xBuffer-yBuffer, y1-yBuffer+xBuffer,
		x2+xBuffer-yBuffer, y2+yBuffer+xBuffer)
	e.expireLine(x1-xBuffer+yBuffer, y1-yBuffer-xBuffer,
		x2+xBuffer+yBuffer, y2+yBuffer-xBuffer)
}

// expireLine expires all tiles a west-to-east line crosses, without a
// buffer. It visits the start tile, then every tile the line enters by
// crossing a western edge, then every tile entered across a northern or
// southern edge; that covers all tiles in O(Δx+Δy). Requires x1 < x2.
func (e *Expirer) expireLine(x1, y1, x2, y2 float64) {
	// y(x) = incline * x + yIntercept
	incline := (y2 - y1) / (x2 - x1)
	yIntercept := y2 - incline*x2

	// horizontal line fully outside the map
	if incline == 0 && (yIntercept < 0 || yIntercept > float64(e.mapWidth)) {
		return
	}
	// fully west of the map
	if x2 <= 0 {
		return
	}
	// clip to the western map edge
	if x1 < 0 {
		x1 = 0
		y1 = yIntercept
	}
	// Clip to the northern map edge by solving 0 = incline*x + yIntercept.
	// Coordinates beyond the southern or eastern edge need no clipping
	// here; expireTile clamps them onto the map.
	if y1 < 0 {
		y1 = 0
		x1 = -yIntercept / incline
	}
	if y2 < 0 {
		y2 = 0
		x2 = -yIntercept / incline
	}

	e.expireTile(int64(x1), int64(y1))
	// tiles entered by crossing their western edge
	for x := int64(x1 + 1); x <= int64(x2); x++ {
		y := incline*float64(x) + yIntercept
		e.expireTile(x, int64(y))
	}
	// tiles entered by crossing their northern or southern edge
	minY := math.Min(y1, y2)
	maxY := math.Max(y1, y2)
	for y := int64(minY + 1); y <= int64(maxY); y++ {
		x := (float64(y) - yIntercept) / incline
		if y2 > y1 {
			// heading south: y is the row being entered
			e.expireTile(int64(x), y)
		} else {
			// heading north: the row above the crossing is entered
			e.expireTile(int64(x), y-1)
		}
	}
}

// expireVerticalLine expires the tiles under a vertical line. Both end
// tiles get the buffered box treatment, the tiles between them are expired
// exactly. Requires y1 <= y2 (y1 is the northern end; y points south).
func (e *Expirer) expireVerticalLine(x, y1, y2 float64) {
	// northern end and its buffer
	e.FromBbox(x, y1, x, y1)
	start := int64(y1 + 1)
	if start < 0 {
		start = 0
	}
	end := int64(y2)
	if end > int64(e.mapWidth) {
		end = int64(e.mapWidth)
	}
	for y := start; y < end; y++ {
		e.expireTile(int64(x), y)
	}
	// southern end and its buffer
	e.FromBbox(x, y2, x, y2)
}
