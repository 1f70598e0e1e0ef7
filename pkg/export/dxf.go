// Package export writes cutter-location loops to files other tools can
// read: DXF for CAD and CAM packages, GeoJSON for anything else.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/waterline/pkg/weave"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/entity"
)

// LayerName returns the DXF layer used for loops at height z.
func LayerName(z float64) string {
	s := strconv.FormatFloat(z, 'f', -1, 64)
	s = strings.NewReplacer(".", "_", "-", "m").Replace(s)
	return "Z_" + s
}

// WriteDXF saves loops to path as one LWPOLYLINE per loop, closed by
// repeating the first vertex. Loops are grouped onto one layer per
// height, taken from each loop's first point.
func WriteDXF(path string, loops []weave.Loop) error {
	d := dxf.NewDrawing()
	d.Header().LtScale = 1.0

	layers := make(map[string]bool)
	for _, l := range loops {
		if len(l) == 0 {
			continue
		}
		name := LayerName(l[0].Z)
		if !layers[name] {
			if _, err := d.AddLayer(name, color.Red, dxf.DefaultLineType, true); err != nil {
				return fmt.Errorf("export: layer %s: %w", name, err)
			}
			layers[name] = true
		}
		if err := d.ChangeLayer(name); err != nil {
			return fmt.Errorf("export: layer %s: %w", name, err)
		}

		lwp := entity.NewLwPolyline(len(l) + 1)
		for j, p := range l {
			lwp.Vertices[j] = []float64{p.X, p.Y}
		}
		lwp.Vertices[len(l)] = []float64{l[0].X, l[0].Y}
		d.AddEntity(lwp)
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}
