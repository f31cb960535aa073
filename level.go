package wadlevel

import (
	"golang.org/x/sync/errgroup"
)

// Lumps are the raw geometry lumps of one level, as located by the caller in its container.
type Lumps struct {
	Things     []byte
	LineDefs   []byte
	SideDefs   []byte
	Vertexes   []byte
	Segs       []byte
	SubSectors []byte
	Nodes      []byte
	Sectors    []byte
}

// Level is a fully decoded, linked and validated level.
type Level struct {
	Format Format
	Things []Thing
	Map    *Map
	Tree   *Tree
}

// LoadLevel decodes all lumps, links the map graph and builds the BSP tree. The format applies
// to the LINEDEFS and THINGS lumps. Lumps are decoded concurrently, but if more than one is
// malformed the error reported is always that of the first in THINGS, LINEDEFS, SIDEDEFS,
// VERTEXES, SEGS, SSECTORS, NODES, SECTORS order.
func LoadLevel(lumps Lumps, format Format) (*Level, error) {
	logger.Printf("Loading %v level ...", format)

	var (
		g      errgroup.Group
		errs   [8]error
		rec    Records
		things []Thing
		nodes  []Node
	)
	g.Go(func() error {
		things, errs[0] = DecodeThings(lumps.Things, format)
		return nil
	})
	g.Go(func() error {
		rec.LineDefs, errs[1] = DecodeLineDefs(lumps.LineDefs, format)
		return nil
	})
	g.Go(func() error {
		rec.SideDefs, errs[2] = DecodeSideDefs(lumps.SideDefs)
		return nil
	})
	g.Go(func() error {
		rec.Vertexes, errs[3] = DecodeVertexes(lumps.Vertexes)
		return nil
	})
	g.Go(func() error {
		rec.Segs, errs[4] = DecodeSegs(lumps.Segs)
		return nil
	})
	g.Go(func() error {
		rec.SubSectors, errs[5] = DecodeSubSectors(lumps.SubSectors)
		return nil
	})
	g.Go(func() error {
		nodes, errs[6] = DecodeNodes(lumps.Nodes)
		return nil
	})
	g.Go(func() error {
		rec.Sectors, errs[7] = DecodeSectors(lumps.Sectors)
		return nil
	})
	// The closures never fail; decode errors are kept per lump and reported in lump order.
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	m, err := BuildMap(rec)
	if err != nil {
		return nil, err
	}
	tree, err := NewTree(nodes, rec.SubSectors)
	if err != nil {
		return nil, err
	}

	return &Level{Format: format, Things: things, Map: m, Tree: tree}, nil
}

// SubSectorAt returns the subsector containing (x, y) and the sector it belongs to.
func (l *Level) SubSectorAt(x, y float64) (SubSectorID, SectorID) {
	ss := l.Tree.Locate(x, y)
	sec, _ := l.Map.SectorOf(ss)
	return ss, sec
}

// SectorAt returns the sector containing (x, y).
func (l *Level) SectorAt(x, y float64) (Sector, SectorID) {
	_, id := l.SubSectorAt(x, y)
	sec, _ := l.Map.Sector(id)
	return sec, id
}
