// Package wadtest builds small levels in memory for tests.
package wadtest

import (
	"bytes"

	"github.com/stuarthighley/wadlevel"
	"github.com/stuarthighley/wadlevel/internal/archive"
)

// TwoRooms is a 128x128 square split at x=64 by a two-sided line. Sector 0 and subsector 0
// are the west room, sector 1 and subsector 1 the east room. The single node partitions along
// the dividing line, pointing north, so east is its front side.
type TwoRooms struct {
	Things  []wadlevel.Thing
	Records wadlevel.Records
	Nodes   []wadlevel.Node
}

// Divider is the index of the two-sided line.
const Divider wadlevel.LineDefID = 6

// NewTwoRooms returns a fresh copy of the fixture; callers may modify it.
func NewTwoRooms() *TwoRooms {
	side := func(sec wadlevel.SectorID) wadlevel.SideDef {
		return wadlevel.SideDef{Middle: wadlevel.NewName8("STARTAN3"), Sector: sec}
	}
	wall := func(v1, v2 wadlevel.VertexID, front wadlevel.SideDefID) wadlevel.LineDef {
		return wadlevel.LineDef{V1: v1, V2: v2, Flags: wadlevel.LineBlocking, Front: front, Back: wadlevel.NoSide}
	}
	seg := func(v1, v2 wadlevel.VertexID, line wadlevel.LineDefID, side int) wadlevel.Seg {
		return wadlevel.Seg{V1: v1, V2: v2, LineDef: line, Side: side}
	}

	return &TwoRooms{
		Things: []wadlevel.Thing{
			{X: 32, Y: 32, Angle: 90, Type: 1, Flags: wadlevel.ThingSkill1and2 | wadlevel.ThingSkill3 | wadlevel.ThingSkill4and5},
			{X: 96, Y: 96, Angle: 180, Type: 3004, Flags: wadlevel.ThingAmbush},
		},
		Records: wadlevel.Records{
			Vertexes: []wadlevel.Vertex{
				{X: 0, Y: 0}, {X: 64, Y: 0}, {X: 128, Y: 0},
				{X: 128, Y: 128}, {X: 64, Y: 128}, {X: 0, Y: 128},
			},
			LineDefs: []wadlevel.LineDef{
				wall(0, 5, 0),
				wall(5, 4, 0),
				wall(4, 3, 1),
				wall(3, 2, 1),
				wall(2, 1, 1),
				wall(1, 0, 0),
				{V1: 1, V2: 4, Flags: wadlevel.LineTwoSided, Special: 1, Tag: 7, Front: 3, Back: 2},
			},
			SideDefs: []wadlevel.SideDef{side(0), side(1), side(0), side(1)},
			Sectors: []wadlevel.Sector{
				{FloorHeight: 0, CeilingHeight: 128, FloorTexture: wadlevel.NewName8("FLOOR4_8"),
					CeilingTexture: wadlevel.NewName8("CEIL3_5"), LightLevel: 160},
				{FloorHeight: 16, CeilingHeight: 96, FloorTexture: wadlevel.NewName8("NUKAGE1"),
					CeilingTexture: wadlevel.NewName8("F_SKY1"), LightLevel: 255,
					Special: wadlevel.SectorDamage10, Tag: 7},
			},
			Segs: []wadlevel.Seg{
				seg(0, 5, 0, 0),
				seg(5, 4, 1, 0),
				seg(4, 1, Divider, 1),
				seg(1, 0, 5, 0),
				seg(1, 4, Divider, 0),
				seg(4, 3, 2, 0),
				seg(3, 2, 3, 0),
				seg(2, 1, 4, 0),
			},
			SubSectors: []wadlevel.SubSector{
				{NumSegs: 4, FirstSeg: 0},
				{NumSegs: 4, FirstSeg: 4},
			},
		},
		Nodes: []wadlevel.Node{{
			X: 64, Y: 0, DX: 0, DY: 128,
			BBox: [2]wadlevel.BoundBox{
				{Top: 128, Bottom: 0, Left: 64, Right: 128},
				{Top: 128, Bottom: 0, Left: 0, Right: 64},
			},
			Children: [2]wadlevel.Child{wadlevel.LeafChild(1), wadlevel.LeafChild(0)},
		}},
	}
}

// Lumps encodes the fixture in the given format.
func (f *TwoRooms) Lumps(format wadlevel.Format) wadlevel.Lumps {
	return wadlevel.Lumps{
		Things:     wadlevel.EncodeThings(f.Things, format),
		LineDefs:   wadlevel.EncodeLineDefs(f.Records.LineDefs, format),
		SideDefs:   wadlevel.EncodeSideDefs(f.Records.SideDefs),
		Vertexes:   wadlevel.EncodeVertexes(f.Records.Vertexes),
		Segs:       wadlevel.EncodeSegs(f.Records.Segs),
		SubSectors: wadlevel.EncodeSubSectors(f.Records.SubSectors),
		Nodes:      wadlevel.EncodeNodes(f.Nodes),
		Sectors:    wadlevel.EncodeSectors(f.Records.Sectors),
	}
}

// LevelLumps returns the lumps of a level in directory order, marker first. Extended levels get
// an empty BEHAVIOR lump.
func LevelLumps(name string, lumps wadlevel.Lumps, format wadlevel.Format) []archive.Lump {
	out := []archive.Lump{
		{Name: name},
		{Name: "THINGS", Data: lumps.Things},
		{Name: "LINEDEFS", Data: lumps.LineDefs},
		{Name: "SIDEDEFS", Data: lumps.SideDefs},
		{Name: "VERTEXES", Data: lumps.Vertexes},
		{Name: "SEGS", Data: lumps.Segs},
		{Name: "SSECTORS", Data: lumps.SubSectors},
		{Name: "NODES", Data: lumps.Nodes},
		{Name: "SECTORS", Data: lumps.Sectors},
		{Name: "REJECT"},
		{Name: "BLOCKMAP"},
	}
	if format == wadlevel.FormatExtended {
		out = append(out, archive.Lump{Name: "BEHAVIOR"})
	}
	return out
}

// WAD returns a PWAD image holding the given lumps.
func WAD(lumps ...archive.Lump) []byte {
	var buf bytes.Buffer
	if err := archive.Write(&buf, lumps); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
