package wadlevel

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// readRecords decodes a whole lump of fixed-width records. The lump must hold an exact number of
// records; anything else is reported as truncation.
func readRecords[B any](lump []byte, kind Kind) ([]B, error) {
	var zero B
	stride := binary.Size(zero)
	if len(lump)%stride != 0 {
		return nil, &FormatError{
			Kind:  kind,
			Index: len(lump) / stride,
			Msg:   fmt.Sprintf("lump size %d is not a multiple of record size %d", len(lump), stride),
		}
	}
	records := make([]B, len(lump)/stride)
	if err := binary.Read(bytes.NewReader(lump), binary.LittleEndian, records); err != nil {
		return nil, &FormatError{Kind: kind, Index: -1, Err: err}
	}
	return records, nil
}

func writeRecords[B any](records []B) []byte {
	var buf bytes.Buffer
	buf.Grow(binary.Size(records))
	// Writing fixed-size structs to a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, records)
	return buf.Bytes()
}

// DecodeVertexes decodes a VERTEXES lump.
func DecodeVertexes(lump []byte) ([]Vertex, error) {
	logger.Println("Reading Vertexes ...")
	bin, err := readRecords[binVertex](lump, KindVertexes)
	if err != nil {
		return nil, err
	}

	// Translate to canonical
	vertexes := make([]Vertex, len(bin))
	for i, v := range bin {
		vertexes[i] = Vertex{X: int(v.X), Y: int(v.Y)}
	}
	logger.Printf("Read %v vertexes", len(vertexes))
	return vertexes, nil
}

// EncodeVertexes is the inverse of DecodeVertexes.
func EncodeVertexes(vertexes []Vertex) []byte {
	bin := make([]binVertex, len(vertexes))
	for i, v := range vertexes {
		bin[i] = binVertex{X: int16(v.X), Y: int16(v.Y)}
	}
	return writeRecords(bin)
}

func sideIndex(v int16) SideDefID {
	if v == -1 {
		return NoSide
	}
	return SideDefID(index16(v))
}

// DecodeLineDefs decodes a LINEDEFS lump in the given layout.
func DecodeLineDefs(lump []byte, format Format) ([]LineDef, error) {
	logger.Printf("Reading Lines (%v) ...", format)

	var lines []LineDef
	switch format {
	case FormatLegacy:
		bin, err := readRecords[binLineDef](lump, KindLineDefs)
		if err != nil {
			return nil, err
		}
		lines = make([]LineDef, len(bin))
		for i, l := range bin {
			lines[i] = LineDef{
				V1:      VertexID(index16(l.V1)),
				V2:      VertexID(index16(l.V2)),
				Flags:   LineFlags(uint16(l.Flags)),
				Special: int(l.Special),
				Tag:     int(l.Tag),
				Front:   sideIndex(l.Sides[0]),
				Back:    sideIndex(l.Sides[1]),
			}
		}
	case FormatExtended:
		bin, err := readRecords[binLineDefExt](lump, KindLineDefs)
		if err != nil {
			return nil, err
		}
		lines = make([]LineDef, len(bin))
		for i, l := range bin {
			lines[i] = LineDef{
				V1:      VertexID(index16(l.V1)),
				V2:      VertexID(index16(l.V2)),
				Flags:   LineFlags(uint16(l.Flags)),
				Special: int(l.Special),
				Args:    l.Args,
				Front:   sideIndex(l.Sides[0]),
				Back:    sideIndex(l.Sides[1]),
			}
		}
	default:
		return nil, &FormatError{Kind: KindLineDefs, Index: -1, Msg: fmt.Sprintf("unknown format %v", format)}
	}

	logger.Printf("Read %v lines", len(lines))
	return lines, nil
}

// EncodeLineDefs is the inverse of DecodeLineDefs. Fields the layout has no room for are dropped.
// It panics if format is neither FormatLegacy nor FormatExtended.
func EncodeLineDefs(lines []LineDef, format Format) []byte {
	switch format {
	case FormatLegacy:
	case FormatExtended:
		bin := make([]binLineDefExt, len(lines))
		for i, l := range lines {
			bin[i] = binLineDefExt{
				V1:      ref16(l.V1),
				V2:      ref16(l.V2),
				Flags:   int16(l.Flags),
				Special: uint8(l.Special),
				Args:    l.Args,
				Sides:   [2]int16{ref16(l.Front), ref16(l.Back)},
			}
		}
		return writeRecords(bin)
	default:
		panic(fmt.Sprintf("wadlevel: EncodeLineDefs: unknown format %v", format))
	}

	bin := make([]binLineDef, len(lines))
	for i, l := range lines {
		bin[i] = binLineDef{
			V1:      ref16(l.V1),
			V2:      ref16(l.V2),
			Flags:   int16(l.Flags),
			Special: int16(l.Special),
			Tag:     int16(l.Tag),
			Sides:   [2]int16{ref16(l.Front), ref16(l.Back)},
		}
	}
	return writeRecords(bin)
}

// DecodeSideDefs decodes a SIDEDEFS lump. Sector references are not checked here.
func DecodeSideDefs(lump []byte) ([]SideDef, error) {
	logger.Println("Reading Sides ...")
	bin, err := readRecords[binSideDef](lump, KindSideDefs)
	if err != nil {
		return nil, err
	}

	sides := make([]SideDef, len(bin))
	for i, s := range bin {
		sides[i] = SideDef{
			XOffset: int(s.XOffset),
			YOffset: int(s.YOffset),
			Upper:   s.Upper,
			Lower:   s.Lower,
			Middle:  s.Middle,
			Sector:  SectorID(index16(s.Sector)),
		}
	}
	logger.Printf("Read %v sides", len(sides))
	return sides, nil
}

// EncodeSideDefs is the inverse of DecodeSideDefs.
func EncodeSideDefs(sides []SideDef) []byte {
	bin := make([]binSideDef, len(sides))
	for i, s := range sides {
		bin[i] = binSideDef{
			XOffset: int16(s.XOffset),
			YOffset: int16(s.YOffset),
			Upper:   s.Upper,
			Lower:   s.Lower,
			Middle:  s.Middle,
			Sector:  ref16(s.Sector),
		}
	}
	return writeRecords(bin)
}

// DecodeSectors decodes a SECTORS lump.
func DecodeSectors(lump []byte) ([]Sector, error) {
	logger.Println("Reading Sectors ...")
	bin, err := readRecords[binSector](lump, KindSectors)
	if err != nil {
		return nil, err
	}

	sectors := make([]Sector, len(bin))
	for i, s := range bin {
		sectors[i] = Sector{
			FloorHeight:    int(s.FloorHeight),
			CeilingHeight:  int(s.CeilingHeight),
			FloorTexture:   s.FloorTexture,
			CeilingTexture: s.CeilingTexture,
			LightLevel:     int(s.LightLevel),
			Special:        SectorSpecial(s.Special),
			Tag:            int(s.Tag),
		}
	}
	logger.Printf("Read %v sectors", len(sectors))
	return sectors, nil
}

// EncodeSectors is the inverse of DecodeSectors.
func EncodeSectors(sectors []Sector) []byte {
	bin := make([]binSector, len(sectors))
	for i, s := range sectors {
		bin[i] = binSector{
			FloorHeight:    int16(s.FloorHeight),
			CeilingHeight:  int16(s.CeilingHeight),
			FloorTexture:   s.FloorTexture,
			CeilingTexture: s.CeilingTexture,
			LightLevel:     int16(s.LightLevel),
			Special:        int16(s.Special),
			Tag:            int16(s.Tag),
		}
	}
	return writeRecords(bin)
}

// DecodeSegs decodes a SEGS lump.
func DecodeSegs(lump []byte) ([]Seg, error) {
	logger.Println("Reading Line Segments ...")
	bin, err := readRecords[binSeg](lump, KindSegs)
	if err != nil {
		return nil, err
	}

	segs := make([]Seg, len(bin))
	for i, s := range bin {
		segs[i] = Seg{
			V1:      VertexID(index16(s.V1)),
			V2:      VertexID(index16(s.V2)),
			Angle:   int(s.Angle),
			LineDef: LineDefID(index16(s.LineDef)),
			Side:    int(s.Side),
			Offset:  int(s.Offset),
		}
	}
	logger.Printf("Read %v line segments", len(segs))
	return segs, nil
}

// EncodeSegs is the inverse of DecodeSegs.
func EncodeSegs(segs []Seg) []byte {
	bin := make([]binSeg, len(segs))
	for i, s := range segs {
		bin[i] = binSeg{
			V1:      ref16(s.V1),
			V2:      ref16(s.V2),
			Angle:   int16(s.Angle),
			LineDef: ref16(s.LineDef),
			Side:    int16(s.Side),
			Offset:  int16(s.Offset),
		}
	}
	return writeRecords(bin)
}

// DecodeSubSectors decodes an SSECTORS lump.
func DecodeSubSectors(lump []byte) ([]SubSector, error) {
	logger.Println("Reading Sub Sectors ...")
	bin, err := readRecords[binSubSector](lump, KindSubSectors)
	if err != nil {
		return nil, err
	}

	subSectors := make([]SubSector, len(bin))
	for i, s := range bin {
		subSectors[i] = SubSector{
			NumSegs:  index16(s.NumSegs),
			FirstSeg: SegID(index16(s.FirstSeg)),
		}
	}
	logger.Printf("Read %v sub sectors", len(subSectors))
	return subSectors, nil
}

// EncodeSubSectors is the inverse of DecodeSubSectors.
func EncodeSubSectors(subSectors []SubSector) []byte {
	bin := make([]binSubSector, len(subSectors))
	for i, s := range subSectors {
		bin[i] = binSubSector{NumSegs: ref16(s.NumSegs), FirstSeg: ref16(s.FirstSeg)}
	}
	return writeRecords(bin)
}

func boxFromBin(b binBBox) BoundBox {
	return BoundBox{Top: int(b.Top), Bottom: int(b.Bottom), Left: int(b.Left), Right: int(b.Right)}
}

func boxToBin(b BoundBox) binBBox {
	return binBBox{Top: int16(b.Top), Bottom: int16(b.Bottom), Left: int16(b.Left), Right: int16(b.Right)}
}

// DecodeNodes decodes a NODES lump. Child references are split into leaf and internal variants
// here; bounding boxes and reference ranges are checked when the tree is built.
func DecodeNodes(lump []byte) ([]Node, error) {
	logger.Println("Reading Nodes ...")
	bin, err := readRecords[binNode](lump, KindNodes)
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, len(bin))
	for i, n := range bin {
		nodes[i] = Node{
			X:        int(n.X),
			Y:        int(n.Y),
			DX:       int(n.DX),
			DY:       int(n.DY),
			BBox:     [2]BoundBox{boxFromBin(n.BBox[0]), boxFromBin(n.BBox[1])},
			Children: [2]Child{childFromRaw(n.Children[0]), childFromRaw(n.Children[1])},
		}
	}
	logger.Printf("Read %v nodes", len(nodes))
	return nodes, nil
}

// EncodeNodes is the inverse of DecodeNodes.
func EncodeNodes(nodes []Node) []byte {
	bin := make([]binNode, len(nodes))
	for i, n := range nodes {
		bin[i] = binNode{
			X:        int16(n.X),
			Y:        int16(n.Y),
			DX:       int16(n.DX),
			DY:       int16(n.DY),
			BBox:     [2]binBBox{boxToBin(n.BBox[0]), boxToBin(n.BBox[1])},
			Children: [2]uint16{n.Children[0].raw(), n.Children[1].raw()},
		}
	}
	return writeRecords(bin)
}

// DecodeThings decodes a THINGS lump in the given layout.
func DecodeThings(lump []byte, format Format) ([]Thing, error) {
	logger.Printf("Reading Things (%v) ...", format)

	var things []Thing
	switch format {
	case FormatLegacy:
		bin, err := readRecords[binThing](lump, KindThings)
		if err != nil {
			return nil, err
		}
		things = make([]Thing, len(bin))
		for i, t := range bin {
			things[i] = Thing{
				X:     int(t.X),
				Y:     int(t.Y),
				Angle: int(t.Angle),
				Type:  int(t.Type),
				Flags: ThingFlags(uint16(t.Options)),
			}
		}
	case FormatExtended:
		bin, err := readRecords[binThingExt](lump, KindThings)
		if err != nil {
			return nil, err
		}
		things = make([]Thing, len(bin))
		for i, t := range bin {
			things[i] = Thing{
				TID:     int(t.TID),
				X:       int(t.X),
				Y:       int(t.Y),
				Z:       int(t.Z),
				Angle:   int(t.Angle),
				Type:    int(t.Type),
				Flags:   ThingFlags(uint16(t.Flags)),
				Special: int(t.Special),
				Args:    t.Args,
			}
		}
	default:
		return nil, &FormatError{Kind: KindThings, Index: -1, Msg: fmt.Sprintf("unknown format %v", format)}
	}

	logger.Printf("Read %v things", len(things))
	return things, nil
}

// EncodeThings is the inverse of DecodeThings. It panics if format is neither FormatLegacy nor
// FormatExtended.
func EncodeThings(things []Thing, format Format) []byte {
	switch format {
	case FormatLegacy:
	case FormatExtended:
		bin := make([]binThingExt, len(things))
		for i, t := range things {
			bin[i] = binThingExt{
				TID:     int16(t.TID),
				X:       int16(t.X),
				Y:       int16(t.Y),
				Z:       int16(t.Z),
				Angle:   int16(t.Angle),
				Type:    int16(t.Type),
				Flags:   int16(t.Flags),
				Special: uint8(t.Special),
				Args:    t.Args,
			}
		}
		return writeRecords(bin)
	default:
		panic(fmt.Sprintf("wadlevel: EncodeThings: unknown format %v", format))
	}

	bin := make([]binThing, len(things))
	for i, t := range things {
		bin[i] = binThing{
			X:       int16(t.X),
			Y:       int16(t.Y),
			Angle:   int16(t.Angle),
			Type:    int16(t.Type),
			Options: int16(t.Flags),
		}
	}
	return writeRecords(bin)
}
