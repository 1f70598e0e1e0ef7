package export

import (
	"github.com/chazu/waterline/pkg/weave"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON returns one Polygon feature per non-empty loop. Each feature
// carries the loop height, its point count and its signed area.
func GeoJSON(loops []weave.Loop) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, l := range loops {
		if len(l) == 0 {
			continue
		}
		ring := make(orb.Ring, 0, len(l)+1)
		for _, p := range l {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		ring = append(ring, ring[0])

		feature := geojson.NewFeature(orb.Polygon{ring})
		feature.Properties["loop"] = i
		feature.Properties["z"] = l[0].Z
		feature.Properties["points"] = len(l)
		feature.Properties["area"] = l.Area()
		fc.Append(feature)
	}
	return fc
}

// MarshalGeoJSON encodes loops as a GeoJSON FeatureCollection.
func MarshalGeoJSON(loops []weave.Loop) ([]byte, error) {
	return GeoJSON(loops).MarshalJSON()
}
