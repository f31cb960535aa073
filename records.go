// Package wadlevel decodes the geometry lumps of a Doom-engine level, links them into a
// validated map graph and builds the BSP tree used to locate points and order subsectors.
// The lump layouts are documented in The Unofficial DOOM Specs:
// http://www.gamers.org/dhs/helpdocs/dmsp1666.html

package wadlevel

import (
	"bytes"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Format selects between the two record layouts used for LINEDEFS and THINGS. It is always
// supplied by the caller and never guessed from lump contents.
type Format int

const (
	FormatLegacy   Format = iota // Doom layout
	FormatExtended               // Hexen layout with action arguments
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatExtended:
		return "extended"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Kind identifies a level lump and the record type it holds.
type Kind int

const (
	KindThings Kind = iota
	KindLineDefs
	KindSideDefs
	KindVertexes
	KindSegs
	KindSubSectors
	KindNodes
	KindSectors
)

var kindNames = [...]string{
	KindThings:     "THINGS",
	KindLineDefs:   "LINEDEFS",
	KindSideDefs:   "SIDEDEFS",
	KindVertexes:   "VERTEXES",
	KindSegs:       "SEGS",
	KindSubSectors: "SSECTORS",
	KindNodes:      "NODES",
	KindSectors:    "SECTORS",
}

// String returns the lump name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Stride returns the width in bytes of one record of kind k in format f.
func (k Kind) Stride(f Format) int {
	switch k {
	case KindThings:
		if f == FormatExtended {
			return 20
		}
		return 10
	case KindLineDefs:
		if f == FormatExtended {
			return 16
		}
		return 14
	case KindSideDefs:
		return 30
	case KindVertexes:
		return 4
	case KindSegs:
		return 12
	case KindSubSectors:
		return 4
	case KindNodes:
		return 28
	case KindSectors:
		return 26
	}
	return 0
}

// Handles into the per-kind arrays of a level.
type (
	VertexID    int
	LineDefID   int
	SideDefID   int
	SectorID    int
	SegID       int
	SubSectorID int
	NodeID      int
)

// NoSide marks the absent back side of a one-sided line.
const NoSide SideDefID = -1

// NoSector is reported as the back sector of segs and lines without a back side.
const NoSector SectorID = -1

// WAD eight-character name. Null-terminated only when shorter than eight bytes. Comparisons are
// byte-exact; no case folding is applied.
type Name8 [8]byte

// NewName8 truncates or pads s to an eight byte name.
func NewName8(s string) Name8 {
	var n Name8
	copy(n[:], s)
	return n
}

// String converts Name8 to string
func (n Name8) String() string {
	i := bytes.IndexByte(n[:], 0)
	if i == -1 {
		i = len(n)
	}
	return string(n[0:i])
}

// On-disk layouts. Field order and widths are the wire format.

type binVertex struct {
	X, Y int16
}

type binLineDef struct {
	V1, V2  int16
	Flags   int16
	Special int16
	Tag     int16
	Sides   [2]int16
}

type binLineDefExt struct {
	V1, V2  int16
	Flags   int16
	Special uint8
	Args    [5]uint8
	Sides   [2]int16
}

type binSideDef struct {
	XOffset, YOffset int16
	Upper            Name8
	Lower            Name8
	Middle           Name8
	Sector           int16
}

type binSector struct {
	FloorHeight    int16
	CeilingHeight  int16
	FloorTexture   Name8
	CeilingTexture Name8
	LightLevel     int16
	Special        int16
	Tag            int16
}

type binSeg struct {
	V1, V2  int16
	Angle   int16 // Full circle is -32768 to 32767.
	LineDef int16
	Side    int16 // 0 - same as linedef, 1 - opposite to linedef
	Offset  int16 // Distance along line to start of segment
}

type binSubSector struct {
	NumSegs  int16
	FirstSeg int16
}

type binBBox struct {
	Top    int16
	Bottom int16
	Left   int16
	Right  int16
}

type binNode struct {
	X, Y     int16
	DX, DY   int16
	BBox     [2]binBBox
	Children [2]uint16
}

type binThing struct {
	X       int16
	Y       int16
	Angle   int16
	Type    int16
	Options int16
}

type binThingExt struct {
	TID     int16
	X, Y, Z int16
	Angle   int16
	Type    int16
	Flags   int16
	Special uint8
	Args    [5]uint8
}

// Vertex is a map coordinate.
type Vertex struct {
	X, Y int
}

// LineDef is a decoded LINEDEFS record. Legacy records carry Tag and leave Args zero; extended
// records carry Args and leave Tag zero.
type LineDef struct {
	V1, V2  VertexID
	Flags   LineFlags
	Special int
	Tag     int
	Args    [5]uint8
	Front   SideDefID
	Back    SideDefID // NoSide if one-sided
}

// SideDef holds the wall textures of one face of a line.
type SideDef struct {
	XOffset, YOffset int
	Upper            Name8
	Lower            Name8
	Middle           Name8
	Sector           SectorID
}

// Sector is a decoded SECTORS record.
type Sector struct {
	FloorHeight    int
	CeilingHeight  int
	FloorTexture   Name8
	CeilingTexture Name8
	LightLevel     int
	Special        SectorSpecial
	Tag            int
}

// Seg is a piece of a linedef bounding a subsector.
type Seg struct {
	V1, V2  VertexID
	Angle   int // binary angle, full circle is 65536
	LineDef LineDefID
	Side    int // 0 front, 1 back
	Offset  int
}

// Radians returns the seg angle in radians in [0, 2π).
func (s Seg) Radians() float64 {
	return bamToRadians(s.Angle)
}

// SubSector is a convex leaf region bounded by NumSegs segs starting at FirstSeg.
type SubSector struct {
	NumSegs  int
	FirstSeg SegID
}

// BoundBox is an axis aligned box in map units, stored in the on-disk order top, bottom, left,
// right.
type BoundBox struct {
	Top, Bottom, Left, Right int
}

// Valid reports whether min <= max on both axes.
func (b BoundBox) Valid() bool {
	return b.Bottom <= b.Top && b.Left <= b.Right
}

// Intersects reports whether the boxes overlap, edges included.
func (b BoundBox) Intersects(o BoundBox) bool {
	return b.Left <= o.Right && o.Left <= b.Right && b.Bottom <= o.Top && o.Bottom <= b.Top
}

// Contains reports whether (x, y) is inside the box, edges included.
func (b BoundBox) Contains(x, y float64) bool {
	return x >= float64(b.Left) && x <= float64(b.Right) && y >= float64(b.Bottom) && y <= float64(b.Top)
}

// Node is a BSP node. Child and BBox index 0 is the front (right) side of the partition line,
// index 1 the back.
type Node struct {
	X, Y     int // partition origin
	DX, DY   int // partition direction
	BBox     [2]BoundBox
	Children [2]Child
}

// Thing is a decoded THINGS record. Legacy records leave TID, Z, Special and Args zero.
type Thing struct {
	TID     int
	X, Y, Z int
	Angle   int // degrees
	Type    int
	Flags   ThingFlags
	Special int
	Args    [5]uint8
}

// Radians returns the facing angle in radians.
func (t Thing) Radians() float64 {
	return degreesToRadians(t.Angle)
}

// ThingFlags holds the option bits of a thing. The skill and ambush bits mean the same in both
// layouts. Bit 0x10 is ThingMultiplayerOnly in legacy records and ThingDormant in extended
// ones, and the class and game mode bits exist only in extended records.
type ThingFlags uint16

const (
	ThingSkill1and2 ThingFlags = 1 << iota
	ThingSkill3
	ThingSkill4and5
	ThingAmbush
	ThingMultiplayerOnly // legacy
)

// Extended layout only.
const (
	ThingDormant     ThingFlags = 0x0010
	ThingFighter     ThingFlags = 0x0020
	ThingCleric      ThingFlags = 0x0040
	ThingMage        ThingFlags = 0x0080
	ThingSingle      ThingFlags = 0x0100
	ThingCooperative ThingFlags = 0x0200
	ThingDeathmatch  ThingFlags = 0x0400
)

// Has reports whether all bits of m are set.
func (f ThingFlags) Has(m ThingFlags) bool {
	return f&m == m
}

// SectorSpecial is the behaviour code of a sector.
type SectorSpecial int

const (
	SectorNormal          SectorSpecial = iota
	SectorBlinkRandom                   // Light blink random
	SectorBlink05                       // Light blink 0.5 second
	SectorBlink10                       // Light blink 1.0 second
	SectorDamage20Blink05               // 20% damage per second, light blink 0.5 second
	SectorDamage10                      // 10% damage per second
	_
	SectorDamage5     // 5% damage per second
	SectorOscillate   // Light oscillates
	SectorSecret      // Credit for finding a secret
	SectorDoor30      // Ceiling closes 30 seconds after level start
	SectorEnd         // 20% damage, level ends below 11% health
	SectorBlink10Sync // Light blink 1.0 second, synchronized
	SectorBlink05Sync // Light blink 0.5 second, synchronized
	SectorDoor300     // Ceiling opens 300 seconds after level start
	_
	SectorDamage20      // 20% damage per second
	SectorFlickerRandom // Light flickers randomly
)

// Binary angles: 0x8000 is half a turn.
const halfTurn = 1 << 15

// degreesToRadians
func degreesToRadians[T constraints.Integer | constraints.Float](n T) float64 {
	return float64(n) * (math.Pi / 180)
}

func bamToRadians[T constraints.Integer](n T) float64 {
	return float64(uint16(n)) * math.Pi / halfTurn
}

// inRange reports whether i is a valid index into an array of length n.
func inRange[T constraints.Integer](i T, n int) bool {
	return i >= 0 && int64(i) < int64(n)
}

// ref16 and index16 convert between handles and the 16-bit on-disk fields. References are read
// unsigned so that levels with more than 32767 records of a kind still resolve.
func ref16[T constraints.Integer](id T) int16 {
	return int16(uint16(id))
}

func index16(v int16) int {
	return int(uint16(v))
}
