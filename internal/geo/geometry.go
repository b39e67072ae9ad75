package geo

import (
	"encoding/binary"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// SRID for every stored geometry.
const SRID = 4326

func lineString(points []Point) *geom.LineString {
	coords := make([]geom.Coord, len(points))
	for i, p := range points {
		coords[i] = geom.Coord{p.Lng, p.Lat}
	}
	return geom.NewLineString(geom.XY).MustSetCoords(coords).SetSRID(SRID)
}

// LineStringWKB encodes points as a little-endian WKB LINESTRING. Fewer than
// two points have no line and return nil.
func LineStringWKB(points []Point) ([]byte, error) {
	if len(points) < 2 {
		return nil, nil
	}
	return wkb.Marshal(lineString(points), binary.LittleEndian)
}

// LineStringGeoJSON encodes points as a GeoJSON LineString.
func LineStringGeoJSON(points []Point) ([]byte, error) {
	if len(points) < 2 {
		return nil, nil
	}
	return gjson.Marshal(lineString(points))
}

// WKBToGeoJSON converts stored WKB bytes into a GeoJSON string.
func WKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// PointsFromWKB decodes a stored LINESTRING back into points.
func PointsFromWKB(wkbBytes []byte) ([]Point, error) {
	if len(wkbBytes) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return nil, err
	}
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, nil
	}
	coords := ls.Coords()
	points := make([]Point, len(coords))
	for i, c := range coords {
		points[i] = Point{Lat: c.Y(), Lng: c.X()}
	}
	return points, nil
}
