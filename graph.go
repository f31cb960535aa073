package wadlevel

import (
	"math"
	"slices"
)

// Records are the decoded geometry lumps of one level.
type Records struct {
	Vertexes   []Vertex
	LineDefs   []LineDef
	SideDefs   []SideDef
	Sectors    []Sector
	Segs       []Seg
	SubSectors []SubSector
}

// Map is the linked geometry of one level. Every reference it holds has been checked, and it is
// never modified after BuildMap returns, so it may be shared between goroutines.
type Map struct {
	vertexes   []Vertex
	lines      []Line
	sides      []SideDef
	sectors    []Sector
	segs       []Seg
	subSectors []SubSector

	segFront, segBack []SectorID
	subSectorSector   []SectorID
	sectorLines       [][]LineDefID
	sectorBoxes       []BoundBox
	sectorsByTag      map[int][]SectorID
}

// BuildMap validates every cross reference in r and links the records into a Map. The first
// broken reference is returned as an *IntegrityError and no Map is produced.
func BuildMap(r Records) (*Map, error) {
	logger.Println("Setting references ...")

	m := &Map{
		vertexes:   slices.Clone(r.Vertexes),
		sides:      slices.Clone(r.SideDefs),
		sectors:    slices.Clone(r.Sectors),
		segs:       slices.Clone(r.Segs),
		subSectors: slices.Clone(r.SubSectors),
	}

	// Sides
	for i, s := range m.sides {
		if !inRange(s.Sector, len(m.sectors)) {
			return nil, integrityErrorf(KindSideDefs, i, "sector %d out of range [0,%d)", s.Sector, len(m.sectors))
		}
	}

	// Lines - dependent on Sides
	m.lines = make([]Line, len(r.LineDefs))
	for i, ld := range r.LineDefs {
		line, err := m.linkLine(i, ld)
		if err != nil {
			return nil, err
		}
		m.lines[i] = line
	}

	// Line Segments - dependent on Lines
	m.segFront = make([]SectorID, len(m.segs))
	m.segBack = make([]SectorID, len(m.segs))
	for i, s := range m.segs {
		if !inRange(s.V1, len(m.vertexes)) || !inRange(s.V2, len(m.vertexes)) {
			return nil, integrityErrorf(KindSegs, i, "vertex %d or %d out of range [0,%d)", s.V1, s.V2, len(m.vertexes))
		}
		if !inRange(s.LineDef, len(m.lines)) {
			return nil, integrityErrorf(KindSegs, i, "linedef %d out of range [0,%d)", s.LineDef, len(m.lines))
		}
		line := &m.lines[s.LineDef]
		switch s.Side {
		case 0:
			m.segFront[i], m.segBack[i] = line.FrontSector, line.BackSector
		case 1:
			if !line.HasBack() {
				return nil, integrityErrorf(KindSegs, i, "back side of one-sided linedef %d", s.LineDef)
			}
			m.segFront[i], m.segBack[i] = line.BackSector, line.FrontSector
		default:
			return nil, integrityErrorf(KindSegs, i, "side %d is neither 0 nor 1", s.Side)
		}
	}

	// SubSectors - dependent on Segs
	m.subSectorSector = make([]SectorID, len(m.subSectors))
	for i, ss := range m.subSectors {
		if ss.NumSegs <= 0 {
			return nil, integrityErrorf(KindSubSectors, i, "no segs")
		}
		if !inRange(ss.FirstSeg, len(m.segs)) || int(ss.FirstSeg)+ss.NumSegs > len(m.segs) {
			return nil, integrityErrorf(KindSubSectors, i, "segs [%d,%d) out of range [0,%d)",
				ss.FirstSeg, int(ss.FirstSeg)+ss.NumSegs, len(m.segs))
		}
		m.subSectorSector[i] = m.segFront[ss.FirstSeg]
	}

	// Sectors
	m.sectorLines = make([][]LineDefID, len(m.sectors))
	m.sectorBoxes = make([]BoundBox, len(m.sectors))
	for i := range m.sectorBoxes {
		m.sectorBoxes[i] = emptyBox()
	}
	for i, l := range m.lines {
		for _, sec := range []SectorID{l.FrontSector, l.BackSector} {
			if sec == NoSector {
				continue
			}
			// A line with the same sector on both sides is listed once.
			if n := len(m.sectorLines[sec]); n > 0 && m.sectorLines[sec][n-1] == LineDefID(i) {
				continue
			}
			m.sectorLines[sec] = append(m.sectorLines[sec], LineDefID(i))
			m.sectorBoxes[sec].add(l.Start)
			m.sectorBoxes[sec].add(l.End)
		}
	}

	// Tags - sector tag 0 means untagged
	m.sectorsByTag = map[int][]SectorID{}
	for i, sec := range m.sectors {
		if sec.Tag != 0 {
			m.sectorsByTag[sec.Tag] = append(m.sectorsByTag[sec.Tag], SectorID(i))
		}
	}

	logger.Printf("Linked %v lines, %v segs, %v sub sectors", len(m.lines), len(m.segs), len(m.subSectors))
	return m, nil
}

func (m *Map) linkLine(i int, ld LineDef) (Line, error) {
	if !inRange(ld.V1, len(m.vertexes)) || !inRange(ld.V2, len(m.vertexes)) {
		return Line{}, integrityErrorf(KindLineDefs, i, "vertex %d or %d out of range [0,%d)", ld.V1, ld.V2, len(m.vertexes))
	}
	if ld.Front == NoSide {
		return Line{}, integrityErrorf(KindLineDefs, i, "no front side")
	}
	if !inRange(ld.Front, len(m.sides)) {
		return Line{}, integrityErrorf(KindLineDefs, i, "front side %d out of range [0,%d)", ld.Front, len(m.sides))
	}
	if ld.Back != NoSide && !inRange(ld.Back, len(m.sides)) {
		return Line{}, integrityErrorf(KindLineDefs, i, "back side %d out of range [0,%d)", ld.Back, len(m.sides))
	}
	if ld.TwoSided() && ld.Back == NoSide {
		return Line{}, integrityErrorf(KindLineDefs, i, "flagged two-sided without a back side")
	}

	start, end := m.vertexes[ld.V1], m.vertexes[ld.V2]
	line := Line{
		LineDef:     ld,
		Start:       start,
		End:         end,
		DX:          end.X - start.X,
		DY:          end.Y - start.Y,
		FrontSector: m.sides[ld.Front].Sector,
		BackSector:  NoSector,
		Box: BoundBox{
			Top:    max(start.Y, end.Y),
			Bottom: min(start.Y, end.Y),
			Left:   min(start.X, end.X),
			Right:  max(start.X, end.X),
		},
	}
	line.Slope = slopeOf(line.DX, line.DY)
	if ld.Back != NoSide {
		line.BackSector = m.sides[ld.Back].Sector
	}
	return line, nil
}

func emptyBox() BoundBox {
	return BoundBox{
		Left:   math.MaxInt,
		Right:  math.MinInt,
		Bottom: math.MaxInt,
		Top:    math.MinInt,
	}
}

func (b *BoundBox) add(v Vertex) {
	b.Left = min(b.Left, v.X)
	b.Right = max(b.Right, v.X)
	b.Bottom = min(b.Bottom, v.Y)
	b.Top = max(b.Top, v.Y)
}

// Record counts per kind.
func (m *Map) NumVertexes() int   { return len(m.vertexes) }
func (m *Map) NumLines() int      { return len(m.lines) }
func (m *Map) NumSideDefs() int   { return len(m.sides) }
func (m *Map) NumSectors() int    { return len(m.sectors) }
func (m *Map) NumSegs() int       { return len(m.segs) }
func (m *Map) NumSubSectors() int { return len(m.subSectors) }

func lookup[T any, I ~int](s []T, id I) (T, bool) {
	if !inRange(id, len(s)) {
		var zero T
		return zero, false
	}
	return s[id], true
}

// By-index lookups. The bool is false when id is out of range.
func (m *Map) Vertex(id VertexID) (Vertex, bool)          { return lookup(m.vertexes, id) }
func (m *Map) Line(id LineDefID) (Line, bool)             { return lookup(m.lines, id) }
func (m *Map) SideDef(id SideDefID) (SideDef, bool)       { return lookup(m.sides, id) }
func (m *Map) Sector(id SectorID) (Sector, bool)          { return lookup(m.sectors, id) }
func (m *Map) Seg(id SegID) (Seg, bool)                   { return lookup(m.segs, id) }
func (m *Map) SubSector(id SubSectorID) (SubSector, bool) { return lookup(m.subSectors, id) }

// FrontSide returns the front sidedef of a line. Every line in a built map has one.
func (m *Map) FrontSide(id LineDefID) (SideDef, bool) {
	l, ok := m.Line(id)
	if !ok {
		return SideDef{}, false
	}
	return m.sides[l.Front], true
}

// BackSide returns the back sidedef of a line, or false for one-sided lines.
func (m *Map) BackSide(id LineDefID) (SideDef, bool) {
	l, ok := m.Line(id)
	if !ok || !l.HasBack() {
		return SideDef{}, false
	}
	return m.sides[l.Back], true
}

// SegSectors returns the sector in front of a seg and the sector behind it. The back sector is
// NoSector for segs of one-sided lines.
func (m *Map) SegSectors(id SegID) (front, back SectorID, ok bool) {
	if !inRange(id, len(m.segs)) {
		return NoSector, NoSector, false
	}
	return m.segFront[id], m.segBack[id], true
}

// SubSectorSegs returns a copy of the segs bounding a subsector.
func (m *Map) SubSectorSegs(id SubSectorID) []Seg {
	ss, ok := m.SubSector(id)
	if !ok {
		return nil
	}
	return slices.Clone(m.segs[ss.FirstSeg : int(ss.FirstSeg)+ss.NumSegs])
}

// SectorOf returns the sector a subsector belongs to, taken from the side of its first seg.
func (m *Map) SectorOf(id SubSectorID) (SectorID, bool) {
	if !inRange(id, len(m.subSectorSector)) {
		return NoSector, false
	}
	return m.subSectorSector[id], true
}

// SectorLines returns the lines bordering a sector.
func (m *Map) SectorLines(id SectorID) []LineDefID {
	if !inRange(id, len(m.sectorLines)) {
		return nil
	}
	return slices.Clone(m.sectorLines[id])
}

// SectorBox returns the extent of the lines bordering a sector. A sector no line refers to
// reports an invalid box.
func (m *Map) SectorBox(id SectorID) (BoundBox, bool) {
	return lookup(m.sectorBoxes, id)
}

// SectorsByTag returns the sectors carrying tag, in index order. Tag 0 marks untagged sectors
// and matches nothing.
func (m *Map) SectorsByTag(tag int) []SectorID {
	if tag == 0 {
		return nil
	}
	return slices.Clone(m.sectorsByTag[tag])
}

// TaggedSectors returns the sectors a line's special acts on: those whose tag equals the
// line's. Extended-format lines keep their tag in Args and report none here.
func (m *Map) TaggedSectors(id LineDefID) []SectorID {
	l, ok := m.Line(id)
	if !ok {
		return nil
	}
	return m.SectorsByTag(l.Tag)
}
