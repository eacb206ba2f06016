package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// admCodeFields are the attribute names district boundary shapefiles use for
// the administrative code, in preference order.
var admCodeFields = []string{"ADM_CD", "ADM_DR_CD", "SIG_CD"}

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Index maps administrative codes to boundary centroids for the map overlay.
// The zero value is an empty index that resolves nothing, which keeps the
// overlay usable (without coordinates) when no shapefile is configured.
type Index struct {
	centroids map[string]Point
}

// Centroid returns the centroid for an administrative code.
func (x *Index) Centroid(admCode string) (lat, lng float64, ok bool) {
	if x == nil || x.centroids == nil {
		return 0, 0, false
	}
	p, ok := x.centroids[admCode]
	return p.Lat, p.Lng, ok
}

// Len returns the number of indexed districts.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.centroids)
}

// LoadIndex reads a district boundary shapefile and precomputes one centroid
// per administrative code. Malformed records are skipped, not fatal.
func LoadIndex(path string) (*Index, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	codeIdx := -1
	for _, name := range admCodeFields {
		if codeIdx = fieldIndex(reader, name); codeIdx >= 0 {
			break
		}
	}
	if codeIdx < 0 {
		return nil, eris.Errorf("geo: no administrative code field in %s", path)
	}

	centroids := make(map[string]Point)
	for reader.Next() {
		_, shape := reader.Shape()
		polygon, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		admCode := strings.TrimSpace(reader.Attribute(codeIdx))
		if admCode == "" {
			continue
		}

		mp := polygonToMultiPolygon(polygon)
		if mp == nil {
			continue
		}

		p, err := centroidOf(mp)
		if err != nil {
			zap.L().Debug("geo: skipping district with degenerate boundary",
				zap.String("adm_code", admCode),
				zap.Error(err),
			)
			continue
		}
		centroids[admCode] = p
	}

	zap.L().Info("boundary index loaded",
		zap.String("path", path),
		zap.Int("districts", len(centroids)),
	)
	return &Index{centroids: centroids}, nil
}

func centroidOf(mp *geom.MultiPolygon) (Point, error) {
	coord, err := xy.Centroid(mp)
	if err != nil {
		return Point{}, err
	}
	return Point{Lat: coord[1], Lng: coord[0]}, nil
}

func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("geo: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geo: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
