package posio

import (
	"fmt"

	"github.com/phil-mansfield/gotetra/render/geom"
	"github.com/phil-mansfield/gotetra/render/io"

	"github.com/phil-mansfield/hexatic/lib/box"
)

// ReadSheet reads the particles owned by a gotetra sheet segment. Segments
// store a grid one particle wider than the particles they own, so only the
// first SegmentWidth^3 particles are kept. The returned box is the full
// simulation box.
func ReadSheet(fname string) ([]geom.Vec, box.Box, error) {
	hd := &io.SheetHeader{ }
	if err := io.ReadSheetHeaderAt(fname, hd); err != nil {
		return nil, box.Box{ }, err
	}

	gw, sw := int(hd.GridWidth), int(hd.SegmentWidth)
	if sw <= 0 || gw < sw {
		return nil, box.Box{ }, fmt.Errorf("sheet file %s has grid width "+
			"%d and segment width %d", fname, gw, sw)
	}

	xg := make([]geom.Vec, gw*gw*gw)
	if err := io.ReadSheetPositionsAt(fname, xg); err != nil {
		return nil, box.Box{ }, err
	}

	b, err := box.New(hd.TotalWidth, hd.TotalWidth, hd.TotalWidth,
		0, 0, 0, false)
	if err != nil {
		return nil, box.Box{ }, fmt.Errorf("sheet file %s: %w", fname, err)
	}

	return sheetSegment(xg, gw, sw), b, nil
}

// sheetSegment copies the sw^3 owned particles out of a gw^3 grid.
func sheetSegment(xg []geom.Vec, gw, sw int) []geom.Vec {
	x := make([]geom.Vec, sw*sw*sw)
	for iz := 0; iz < sw; iz++ {
		for iy := 0; iy < sw; iy++ {
			for ix := 0; ix < sw; ix++ {
				x[ix + iy*sw + iz*sw*sw] = xg[ix + iy*gw + iz*gw*gw]
			}
		}
	}
	return x
}
