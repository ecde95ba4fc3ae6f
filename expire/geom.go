package expire

import (
	"log"

	"github.com/go-spatial/geom"
)

// FromGeom expires all tiles touched by a go-spatial geometry value, e.g.
// one decoded from a GeoPackage. Coordinates are in the source CRS.
// Geometry types the engine does not handle are logged and dropped.
func (e *Expirer) FromGeom(g geom.Geometry, featureID int64) {
	if e.mapWidth == 0 {
		return
	}
	switch g := g.(type) {
	case geom.Point:
		e.FromPoint(g.X(), g.Y())
	case geom.MultiPoint:
		for _, pt := range g.Points() {
			e.FromPoint(pt[0], pt[1])
		}
	case geom.LineString:
		e.fromCoordsLine(g.Vertices())
	case geom.MultiLineString:
		for _, ls := range g.LineStrings() {
			e.fromCoordsLine(ls)
		}
	case geom.Polygon:
		e.fromGeomPolygon(g, featureID)
	case geom.MultiPolygon:
		for _, p := range g.Polygons() {
			e.fromGeomPolygon(p, featureID)
		}
	default:
		log.Printf("feature %d: unknown geometry type %T, cannot expire", featureID, g)
	}
}

func (e *Expirer) fromGeomPolygon(p geom.Polygon, featureID int64) {
	rings := p.LinearRings()
	if len(rings) == 0 || len(rings[0]) == 0 {
		return
	}
	outer := rings[0]
	bboxMin := outer[0]
	bboxMax := outer[0]
	for _, pt := range outer[1:] {
		bboxMin[0] = min(bboxMin[0], pt[0])
		bboxMin[1] = min(bboxMin[1], pt[1])
		bboxMax[0] = max(bboxMax[0], pt[0])
		bboxMax[1] = max(bboxMax[1], pt[1])
	}
	e.fromPolygonRings(rings, bboxMin, bboxMax, featureID)
}
