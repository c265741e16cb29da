package selection

// Point is a raw pointer coordinate in the grid's content space, with the
// origin at the top-left of the first cell's padding box and Y growing
// downward. Scroll compensation is the host's job.
type Point struct {
	X, Y float32
}

// GridGeometry describes the fixed-layout grid used for hit-testing:
// square cells of CellSide, separated by Spacing, inset by EdgePadding,
// Columns per row.
type GridGeometry struct {
	CellSide    float32
	Spacing     float32
	EdgePadding float32
	Columns     int
}

// IndexAt maps a pointer coordinate to a flat cell index. The second
// return value is false on a miss: coordinates left of or above the
// padding box, or a column beyond the grid. Gaps between cells resolve to
// the preceding cell so a drag sweeps continuously. A miss is a normal
// outcome, never an error.
func (g GridGeometry) IndexAt(pt Point) (int, bool) {
	if g.Columns <= 0 || g.CellSide <= 0 {
		return 0, false
	}

	x := pt.X - g.EdgePadding
	y := pt.Y - g.EdgePadding
	if x < 0 || y < 0 {
		return 0, false
	}

	stride := g.CellSide + g.Spacing
	col := int(x / stride)
	if col >= g.Columns {
		return 0, false
	}
	row := int(y / stride)

	return row*g.Columns + col, true
}
