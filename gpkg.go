package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/gpkg"

	"github.com/pdok/tilexpire/processing"
)

type featureGPKG struct {
	id       int64
	geometry geom.Geometry
}

func (f featureGPKG) ID() int64 {
	return f.id
}

func (f featureGPKG) Geometry() geom.Geometry {
	return f.geometry
}

type column struct {
	cid       int
	name      string
	ctype     string
	notnull   int
	dfltValue *int
	pk        int
}

type table struct {
	name    string
	columns []column
	gcolumn string
	gtype   gpkg.GeometryType
	srs     gpkg.SpatialReferenceSystem
}

// geometryTypeFromString returns the numeric value of a gometry string
func geometryTypeFromString(geometrytype string) gpkg.GeometryType {
	switch strings.ToUpper(geometrytype) {
	case "GEOMETRY":
		return gpkg.Geometry
	case "POINT":
		return gpkg.Point
	case "LINESTRING":
		return gpkg.Linestring
	case "POLYGON":
		return gpkg.Polygon
	case "MULTIPOINT":
		return gpkg.MultiPoint
	case "MULTILINESTRING":
		return gpkg.MultiLinestring
	case "MULTIPOLYGON":
		return gpkg.MultiPolygon
	default:
		return gpkg.Geometry
	}
}

type SourceGeopackage struct {
	handle *gpkg.Handle
	tables []table
}

func (source *SourceGeopackage) Init(file string) {
	source.handle = openGeopackage(file)
	source.tables = source.getTableInfo()
}

func (source *SourceGeopackage) Close() {
	source.handle.Close()
}

// ReadFeatures streams the fid and geometry of every feature in every
// feature table to the given channel and closes it when all are read.
func (source SourceGeopackage) ReadFeatures(features chan<- processing.Feature) {
	defer close(features)
	for _, t := range source.tables {
		source.readTableFeatures(t, features)
	}
}

func (source SourceGeopackage) readTableFeatures(t table, features chan<- processing.Feature) {
	rows, err := source.handle.Query(t.selectSQL())
	if err != nil {
		log.Fatalf("error querying source features: %s", err)
	}
	defer rows.Close()

	var fallbackID int64
	for rows.Next() {
		var fid *int64
		var blob []byte
		if err = rows.Scan(&fid, &blob); err != nil {
			log.Fatalf("error reading feature row: %v", err)
		}
		fallbackID++
		var f featureGPKG
		if fid != nil {
			f.id = *fid
		} else {
			f.id = fallbackID
		}
		sb, err := gpkg.DecodeGeometry(blob)
		if err != nil {
			log.Printf("feature %d: error decoding geometry: %s", f.id, err)
			continue
		}
		f.geometry = sb.Geometry
		features <- f
	}
	if err = rows.Err(); err != nil {
		log.Fatal(err)
	}
}

func (source SourceGeopackage) getTableInfo() []table {
	query := `SELECT table_name, column_name, geometry_type_name, srs_id FROM gpkg_geometry_columns;`
	rows, err := source.handle.Query(query)
	if err != nil {
		log.Fatalf("error during reading the source table information: %v - %v", query, err)
	}
	defer rows.Close()
	var tables []table

	for rows.Next() {
		var t table
		var gtype string
		var srsID int
		err := rows.Scan(&t.name, &t.gcolumn, &gtype, &srsID)
		if err != nil {
			log.Fatalf("error reading the source table information: %s", err)
		}

		t.columns = getTableColumns(source.handle, t.name)
		t.gtype = geometryTypeFromString(gtype)
		t.srs = getSpatialReferenceSystem(source.handle, srsID)

		tables = append(tables, t)
	}
	return tables
}

func openGeopackage(file string) *gpkg.Handle {
	handle, err := gpkg.Open(file)
	if err != nil {
		log.Fatalf("error opening GeoPackage: %s", err)
	}
	return handle
}

// selectSQL build a SELECT statement for the fid and geometry columns
// used for reading the source features
func (t table) selectSQL() string {
	fid := `NULL`
	for _, c := range t.columns {
		if c.pk == 1 {
			fid = `"` + c.name + `"`
			break
		}
	}
	return `SELECT ` + fid + `, "` + t.gcolumn + `" FROM "` + t.name + `";`
}

// getSpatialReferenceSystem extracts this based on the given SRS id
func getSpatialReferenceSystem(h *gpkg.Handle, id int) gpkg.SpatialReferenceSystem {
	var srs gpkg.SpatialReferenceSystem
	query := `SELECT srs_name, srs_id, organization, organization_coordsys_id, definition, description FROM gpkg_spatial_ref_sys WHERE srs_id = %v;`

	row := h.QueryRow(fmt.Sprintf(query, id))
	var description *string
	row.Scan(&srs.Name, &srs.ID, &srs.Organization, &srs.OrganizationCoordsysID, &srs.Definition, &description)
	if description != nil {
		srs.Description = *description
	}

	return srs
}

// getTableColumns collects the column information of a given table
func getTableColumns(h *gpkg.Handle, table string) []column {
	var columns []column
	query := `PRAGMA table_info('%v');`
	rows, err := h.Query(fmt.Sprintf(query, table))

	if err != nil {
		log.Fatalf("error reading the column information: %v - %v", query, err)
	}
	defer rows.Close()

	for rows.Next() {
		var column column
		err := rows.Scan(&column.cid, &column.name, &column.ctype, &column.notnull, &column.dfltValue, &column.pk)
		if err != nil {
			log.Fatalf("error getting the column information: %s", err)
		}
		columns = append(columns, column)
	}
	return columns
}
