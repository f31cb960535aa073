package archive_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuarthighley/wadlevel"
	"github.com/stuarthighley/wadlevel/internal/archive"
	"github.com/stuarthighley/wadlevel/internal/wadtest"
)

func twoLevelWAD() []byte {
	f := wadtest.NewTwoRooms()
	lumps := []archive.Lump{{Name: "PLAYPAL", Data: make([]byte, 768)}}
	lumps = append(lumps, wadtest.LevelLumps("MAP02", f.Lumps(wadlevel.FormatExtended), wadlevel.FormatExtended)...)
	lumps = append(lumps, wadtest.LevelLumps("E1M1", f.Lumps(wadlevel.FormatLegacy), wadlevel.FormatLegacy)...)
	lumps = append(lumps, archive.Lump{Name: "ENDOOM", Data: make([]byte, 4000)})
	return wadtest.WAD(lumps...)
}

func TestLevelNames(t *testing.T) {
	data := twoLevelWAD()
	a, err := archive.New(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, []string{"E1M1", "MAP02"}, a.LevelNames())
	dir := a.Lumps()
	assert.Equal(t, "PLAYPAL", dir[0].Name)
	assert.Equal(t, 768, dir[0].Size)
	assert.Equal(t, "ENDOOM", dir[len(dir)-1].Name)
}

func TestReadLevel(t *testing.T) {
	data := twoLevelWAD()
	a, err := archive.New(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	f := wadtest.NewTwoRooms()
	lumps, format, err := a.ReadLevel("E1M1")
	require.NoError(t, err)
	assert.Equal(t, wadlevel.FormatLegacy, format)
	assert.Equal(t, f.Lumps(wadlevel.FormatLegacy), lumps)

	lumps, format, err = a.ReadLevel("MAP02")
	require.NoError(t, err)
	assert.Equal(t, wadlevel.FormatExtended, format)

	level, err := wadlevel.LoadLevel(lumps, format)
	require.NoError(t, err)
	assert.Equal(t, 7, level.Map.NumLines())
}

func TestReadLevelMissing(t *testing.T) {
	data := twoLevelWAD()
	a, err := archive.New(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, _, err = a.ReadLevel("E1M9")
	assert.True(t, errors.Is(err, archive.ErrLumpNotFound))

	_, err = a.ReadLump(1000)
	assert.True(t, errors.Is(err, archive.ErrLumpNotFound))
}

func TestReadLevelMissingLump(t *testing.T) {
	f := wadtest.NewTwoRooms()
	lumps := wadtest.LevelLumps("E1M1", f.Lumps(wadlevel.FormatLegacy), wadlevel.FormatLegacy)
	// Drop NODES.
	lumps = append(lumps[:7], lumps[8:]...)
	data := wadtest.WAD(lumps...)

	a, err := archive.New(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	_, _, err = a.ReadLevel("E1M1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, archive.ErrLumpNotFound))
	assert.Contains(t, err.Error(), "NODES")
}

func TestBadHeader(t *testing.T) {
	data := wadtest.WAD(archive.Lump{Name: "DEMO1", Data: []byte{1, 2, 3}})
	bad := bytes.Clone(data)
	copy(bad, "JUNK")
	_, err := archive.New(bytes.NewReader(bad), int64(len(bad)))
	assert.ErrorContains(t, err, "bad magic")

	_, err = archive.New(bytes.NewReader(data[:6]), 6)
	assert.Error(t, err)

	// Directory past the end of the file.
	_, err = archive.New(bytes.NewReader(data), int64(len(data)-1))
	assert.True(t, errors.Is(err, archive.ErrBadLump))
}

func TestOpen(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test.wad")
	require.NoError(t, os.WriteFile(filename, twoLevelWAD(), 0o644))

	a, err := archive.Open(filename)
	require.NoError(t, err)
	defer a.Close()
	assert.Len(t, a.LevelNames(), 2)

	_, err = archive.Open(filepath.Join(t.TempDir(), "missing.wad"))
	assert.Error(t, err)
}

func TestOpenCompressed(t *testing.T) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	require.NoError(t, err)
	compressed := enc.EncodeAll(twoLevelWAD(), nil)
	require.NoError(t, enc.Close())

	filename := filepath.Join(t.TempDir(), "test.wad.zst")
	require.NoError(t, os.WriteFile(filename, compressed, 0o644))

	a, err := archive.Open(filename)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, []string{"E1M1", "MAP02"}, a.LevelNames())

	lumps, format, err := a.ReadLevel("E1M1")
	require.NoError(t, err)
	assert.Equal(t, wadlevel.FormatLegacy, format)
	assert.Equal(t, wadtest.NewTwoRooms().Lumps(wadlevel.FormatLegacy), lumps)

	// A truncated frame fails to decode.
	require.NoError(t, os.WriteFile(filename, compressed[:len(compressed)/2], 0o644))
	_, err = archive.Open(filename)
	assert.Error(t, err)
}

func TestSetLoggerNil(t *testing.T) {
	archive.SetLogger(nil)
	data := twoLevelWAD()
	a, err := archive.New(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		_, _, err = a.ReadLevel("E1M1")
	})
	assert.NoError(t, err)
}
