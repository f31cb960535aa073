package wadlevel

// LineFlags is the attribute bitset of a linedef.
type LineFlags uint16

const (
	LineBlocking      LineFlags = 1 << iota // Solid, is an obstacle
	LineBlockMonsters                       // Blocks monsters only
	LineTwoSided                            // Back side present
	LineDontPegTop                          // Upper texture unpegged
	LineDontPegBottom                       // Lower texture unpegged
	LineSecret                              // Automap draws it as one-sided
	LineSoundBlock                          // Sound stops after crossing two of these
	LineDontDraw                            // Never drawn on the automap
	LineMapped                              // Already seen, drawn on the automap
)

// Has reports whether all bits of m are set.
func (f LineFlags) Has(m LineFlags) bool {
	return f&m == m
}

// TwoSided reports whether the line is flagged as two-sided.
func (l LineDef) TwoSided() bool {
	return l.Flags.Has(LineTwoSided)
}

// HasBack reports whether the line references a back side.
func (l LineDef) HasBack() bool {
	return l.Back != NoSide
}

type SlopeType int

const (
	SlopeTypeHorizontal SlopeType = iota
	SlopeTypeVertical
	SlopeTypePositive
	SlopeTypeNegative
)

func slopeOf(dx, dy int) SlopeType {
	switch {
	case dx == 0:
		return SlopeTypeVertical
	case dy == 0:
		return SlopeTypeHorizontal
	case (dx > 0) == (dy > 0):
		return SlopeTypePositive
	}
	return SlopeTypeNegative
}

// Line is a linedef with its references resolved against the map.
type Line struct {
	LineDef
	Start, End  Vertex
	DX, DY      int       // End - Start, for side checking
	Slope       SlopeType // To aid move clipping
	Box         BoundBox  // Extent of the line
	FrontSector SectorID
	BackSector  SectorID // NoSector if one-sided
}

// PointOnSide returns 0 if (x, y) is on the front (right) side of the line and 1 otherwise.
// Points on the line count as back.
func (l Line) PointOnSide(x, y float64) int {
	return pointOnSide(float64(l.Start.X), float64(l.Start.Y), float64(l.DX), float64(l.DY), x, y)
}
