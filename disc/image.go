package disc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

// pregapSectors is the length of the track 1 pregap, which BIN dumps omit.
const pregapSectors = 150

// DefaultCacheSize is the number of sectors kept by the LRU cache.
const DefaultCacheSize = 64

var ErrSectorOutOfRange = errors.New("sector out of range")

// Image is a source of raw disc sectors.
type Image interface {
	// ReadSector reads the sector at msf into s.
	ReadSector(s *Sector, msf Msf) error
	// Format describes the backing image.
	Format() string
	// SectorCount returns the number of sectors stored in the image.
	SectorCount() uint32
	Close() error
}

// BinImage is a single-track raw BIN dump.
type BinImage struct {
	file    afero.File
	format  string
	sectors uint32
	cache   *lru.Cache[uint32, *[SectorSize]byte]
}

// NewBinImage wraps an opened BIN file. cacheSize sectors are kept in
// memory; 0 selects DefaultCacheSize.
func NewBinImage(file afero.File, format string, cacheSize int) (*BinImage, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat disc image: %w", err)
	}
	size := info.Size()
	if size < SectorSize {
		return nil, fmt.Errorf("%d bytes: %w", size, ErrBadFormat)
	}
	if size%SectorSize != 0 {
		slog.Warn("disc image size is not a multiple of the sector size",
			"name", file.Name(), "size", size)
	}

	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[uint32, *[SectorSize]byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("sector cache: %w", err)
	}

	return &BinImage{
		file:    file,
		format:  format,
		sectors: uint32(size / SectorSize),
		cache:   cache,
	}, nil
}

func (b *BinImage) Format() string {
	return b.format
}

func (b *BinImage) SectorCount() uint32 {
	return b.sectors
}

// ReadSector reads the sector at msf. Only track 1 is supported: positions
// inside the pregap or past the end of the image fail.
func (b *BinImage) ReadSector(s *Sector, msf Msf) error {
	abs := msf.SectorIndex()
	if abs < pregapSectors || abs-pregapSectors >= b.sectors {
		return fmt.Errorf("%s: %w", msf, ErrSectorOutOfRange)
	}
	index := abs - pregapSectors

	raw, ok := b.cache.Get(index)
	if !ok {
		raw = new([SectorSize]byte)
		if _, err := b.file.ReadAt(raw[:], int64(index)*SectorSize); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read sector %s: %w", msf, err)
		}
		b.cache.Add(index, raw)
	}

	trackMsf, _ := MsfFromSectorIndex(index)
	s.SetRaw(raw[:], Metadata{
		Msf:      msf,
		TrackMsf: trackMsf,
		Track:    0x01,
		Index:    0x01,
	})
	return nil
}

func (b *BinImage) Close() error {
	b.cache.Purge()
	return b.file.Close()
}

// OpenImage opens a disc image on fs. Files ending in .xz or .zst are
// decompressed into memory first.
func OpenImage(fs afero.Fs, path string, cacheSize int) (Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open disc image: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xz", ".zst":
		defer f.Close()
		return openCompressed(f, path, ext, cacheSize)
	}

	img, err := NewBinImage(f, "BIN", cacheSize)
	if err != nil {
		f.Close()
		return nil, err
	}
	return img, nil
}

func openCompressed(r io.Reader, path, ext string, cacheSize int) (Image, error) {
	var (
		data   []byte
		err    error
		format string
	)

	switch ext {
	case ".xz":
		format = "BIN (xz)"
		var xr *xz.Reader
		if xr, err = xz.NewReader(r); err == nil {
			data, err = io.ReadAll(xr)
		}
	case ".zst":
		format = "BIN (zstd)"
		var zr *zstd.Decoder
		if zr, err = zstd.NewReader(r); err == nil {
			data, err = io.ReadAll(zr)
			zr.Close()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}

	return memoryImage(data, strings.TrimSuffix(filepath.Base(path), ext), format, cacheSize)
}

// memoryImage serves data through an in-memory filesystem.
func memoryImage(data []byte, name, format string, cacheSize int) (Image, error) {
	mem := afero.NewMemMapFs()
	if err := afero.WriteReader(mem, name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("buffer disc image: %w", err)
	}
	f, err := mem.Open(name)
	if err != nil {
		return nil, fmt.Errorf("buffer disc image: %w", err)
	}
	img, err := NewBinImage(f, format, cacheSize)
	if err != nil {
		f.Close()
		return nil, err
	}
	return img, nil
}

var (
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ImageFromBytes serves a BIN image held in memory. xz and zstd streams
// are recognized by their magic number and decompressed first.
func ImageFromBytes(data []byte, cacheSize int) (Image, error) {
	switch {
	case bytes.HasPrefix(data, xzMagic):
		return openCompressed(bytes.NewReader(data), "disc.bin.xz", ".xz", cacheSize)
	case bytes.HasPrefix(data, zstdMagic):
		return openCompressed(bytes.NewReader(data), "disc.bin.zst", ".zst", cacheSize)
	}
	return memoryImage(data, "disc.bin", "BIN", cacheSize)
}
