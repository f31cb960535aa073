// Package archive reads the directory of a WAD file and hands out the raw lumps of a level.
package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/stuarthighley/wadlevel"
)

var (
	// ErrLumpNotFound is returned for unknown levels, missing level lumps and lump indexes
	// outside the directory.
	ErrLumpNotFound = errors.New("lump not found")
	ErrBadLump      = errors.New("lump extends past end of file")
)

type binHeader struct {
	Magic        [4]byte
	NumLumps     int32
	InfoTableOfs int32
}

type binLumpInfo struct {
	Filepos int32
	Size    int32
	Name    wadlevel.Name8
}

// LumpInfo is one directory entry: the lump name and its byte range in the file.
type LumpInfo struct {
	Name    string
	Filepos int
	Size    int
}

// Archive is an open WAD file. Lump data is read on demand.
type Archive struct {
	r         io.ReaderAt
	closer    io.Closer
	size      int64
	lumpInfos []LumpInfo
	levels    map[string]int
}

// zstdMagic starts a zstd frame. Compressed WADs are decoded into memory when opened.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Open opens a WAD file by name. A zstd-compressed file is decompressed in full first.
func Open(filename string) (*Archive, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	st, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	magic := make([]byte, len(zstdMagic))
	if _, err := file.ReadAt(magic, 0); err == nil && bytes.Equal(magic, zstdMagic) {
		defer file.Close()
		data, err := decompress(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		a, err := New(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		return a, nil
	}

	a, err := New(file, st.Size())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	a.closer = file
	return a, nil
}

func decompress(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	logger.Println("Decompressing WAD ...")
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	logger.Printf("Decompressed %v bytes", len(data))
	return data, nil
}

// New reads the header and directory of a WAD held in r.
func New(r io.ReaderAt, size int64) (*Archive, error) {
	var header binHeader
	if err := binary.Read(io.NewSectionReader(r, 0, size), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if magic := string(header.Magic[:]); magic != "IWAD" && magic != "PWAD" {
		return nil, fmt.Errorf("bad magic: %q", header.Magic)
	}
	if header.NumLumps < 0 || header.InfoTableOfs < 0 {
		return nil, fmt.Errorf("bad header: %d lumps at %d", header.NumLumps, header.InfoTableOfs)
	}

	a := &Archive{r: r, size: size}
	if err := a.readInfoTables(int64(header.InfoTableOfs), int(header.NumLumps)); err != nil {
		return nil, err
	}
	return a, nil
}

// Close closes the underlying file, if the archive was opened by name.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// readInfoTables reads the lump directory. A level is the lump named just before a THINGS lump.
func (a *Archive) readInfoTables(offset int64, numLumps int) error {
	if offset > a.size || int64(numLumps)*int64(binary.Size(binLumpInfo{})) > a.size-offset {
		return fmt.Errorf("directory of %d lumps at %d: %w", numLumps, offset, ErrBadLump)
	}
	binInfos := make([]binLumpInfo, numLumps)
	section := io.NewSectionReader(a.r, offset, a.size-offset)
	if err := binary.Read(section, binary.LittleEndian, binInfos); err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	levels := map[string]int{}
	lumpInfos := make([]LumpInfo, numLumps)
	for i, bi := range binInfos {
		lumpInfos[i] = LumpInfo{bi.Name.String(), int(bi.Filepos), int(bi.Size)}
		if lumpInfos[i].Name == "THINGS" && i > 0 {
			levels[lumpInfos[i-1].Name] = i - 1
		}
	}
	a.levels = levels
	a.lumpInfos = lumpInfos
	return nil
}

// Lumps returns a copy of the directory.
func (a *Archive) Lumps() []LumpInfo {
	return slices.Clone(a.lumpInfos)
}

// LevelNames returns a slice of level names found in the WAD archive.
func (a *Archive) LevelNames() []string {
	result := make([]string, 0, len(a.levels))
	for name := range a.levels {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// ReadLump reads the whole of lump i.
func (a *Archive) ReadLump(i int) ([]byte, error) {
	if i < 0 || i >= len(a.lumpInfos) {
		return nil, ErrLumpNotFound
	}
	li := a.lumpInfos[i]
	if li.Filepos < 0 || li.Size < 0 || int64(li.Filepos)+int64(li.Size) > a.size {
		return nil, fmt.Errorf("%s: %w", li.Name, ErrBadLump)
	}
	lump := make([]byte, li.Size)
	if li.Size == 0 {
		return lump, nil
	}
	if _, err := a.r.ReadAt(lump, int64(li.Filepos)); err != nil {
		return nil, fmt.Errorf("%s: %w", li.Name, err)
	}
	return lump, nil
}

// Lumps that may follow a level marker.
var levelLumpNames = map[string]bool{
	"THINGS": true, "LINEDEFS": true, "SIDEDEFS": true, "VERTEXES": true, "SEGS": true,
	"SSECTORS": true, "NODES": true, "SECTORS": true, "REJECT": true, "BLOCKMAP": true,
	"BEHAVIOR": true, "SCRIPTS": true,
}

// ReadLevel returns the geometry lumps of a level and its format. A BEHAVIOR lump among the
// level's lumps marks the extended format.
func (a *Archive) ReadLevel(name string) (wadlevel.Lumps, wadlevel.Format, error) {
	logger.Printf("Reading Level %v ...", name)

	var lumps wadlevel.Lumps
	format := wadlevel.FormatLegacy
	levelIdx, ok := a.levels[name]
	if !ok {
		return lumps, format, fmt.Errorf("level %s: %w", name, ErrLumpNotFound)
	}

	targets := map[string]*[]byte{
		"THINGS":   &lumps.Things,
		"LINEDEFS": &lumps.LineDefs,
		"SIDEDEFS": &lumps.SideDefs,
		"VERTEXES": &lumps.Vertexes,
		"SEGS":     &lumps.Segs,
		"SSECTORS": &lumps.SubSectors,
		"NODES":    &lumps.Nodes,
		"SECTORS":  &lumps.Sectors,
	}
	found := map[string]bool{}
	for i := levelIdx + 1; i < len(a.lumpInfos) && levelLumpNames[a.lumpInfos[i].Name]; i++ {
		lumpName := a.lumpInfos[i].Name
		if lumpName == "BEHAVIOR" {
			format = wadlevel.FormatExtended
		}
		dst, ok := targets[lumpName]
		if !ok {
			logger.Printf("Unhandled lump %s", lumpName)
			continue
		}
		lump, err := a.ReadLump(i)
		if err != nil {
			return lumps, format, err
		}
		*dst = lump
		found[lumpName] = true
	}

	for lumpName := range targets {
		if !found[lumpName] {
			return lumps, format, fmt.Errorf("level %s: %s: %w", name, lumpName, ErrLumpNotFound)
		}
	}
	return lumps, format, nil
}

// Lump is a named lump to be written by Write.
type Lump struct {
	Name string
	Data []byte
}

// Write writes lumps as a PWAD: header, lump data in order, then the directory.
func Write(w io.Writer, lumps []Lump) error {
	headerSize := binary.Size(binHeader{})
	offset := headerSize
	infos := make([]binLumpInfo, len(lumps))
	for i, l := range lumps {
		infos[i] = binLumpInfo{Filepos: int32(offset), Size: int32(len(l.Data)), Name: wadlevel.NewName8(l.Name)}
		offset += len(l.Data)
	}

	header := binHeader{Magic: [4]byte{'P', 'W', 'A', 'D'}, NumLumps: int32(len(lumps)), InfoTableOfs: int32(offset)}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	for _, l := range lumps {
		if _, err := w.Write(l.Data); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, infos)
}
