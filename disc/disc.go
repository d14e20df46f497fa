package disc

import (
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
)

var ErrUnknownRegion = errors.New("unknown disc region")

// Region is the region a disc was licensed for.
type Region int

const (
	RegionJapan Region = iota
	RegionNorthAmerica
	RegionEurope
)

func (r Region) String() string {
	switch r {
	case RegionJapan:
		return "Japan"
	case RegionNorthAmerica:
		return "North America"
	case RegionEurope:
		return "Europe"
	}
	return fmt.Sprintf("Region(%d)", int(r))
}

// licenseMsf is the position of the sector holding the license string.
var licenseMsf = MustMsf(0x00, 0x02, 0x04)

// crcSectors is the number of leading sectors hashed by CRC.
const crcSectors = 16

// Disc is an identified PlayStation disc.
type Disc struct {
	image  Image
	region Region
	serial string
	crc    uint32
}

// Open opens and identifies the disc image at path.
func Open(fs afero.Fs, path string, cacheSize int) (*Disc, error) {
	img, err := OpenImage(fs, path, cacheSize)
	if err != nil {
		return nil, err
	}
	d, err := New(img)
	if err != nil {
		img.Close()
		return nil, err
	}
	return d, nil
}

// New identifies the disc stored in image.
func New(image Image) (*Disc, error) {
	region, err := extractRegion(image)
	if err != nil {
		return nil, err
	}

	d := &Disc{
		image:  image,
		region: region,
	}

	d.serial, err = serialNumber(image)
	if err != nil {
		slog.Debug("no serial number found", "error", err)
	}

	d.crc, err = imageCRC(image)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Disc) Region() Region {
	return d.region
}

// SerialNumber returns the game serial (e.g. "SCES-00344"), or an empty
// string if the disc has no SYSTEM.CNF.
func (d *Disc) SerialNumber() string {
	return d.serial
}

func (d *Disc) Image() Image {
	return d.image
}

// CRC identifies the disc for save states.
func (d *Disc) CRC() uint32 {
	return d.crc
}

// ReadSector reads the sector at msf into s.
func (d *Disc) ReadSector(s *Sector, msf Msf) error {
	return d.image.ReadSector(s, msf)
}

func (d *Disc) Close() error {
	return d.image.Close()
}

// extractRegion reads the license string at 00:02:04. Only letters are
// kept, which gets rid of the variable whitespace found on some discs.
func extractRegion(image Image) (Region, error) {
	var s Sector
	if err := image.ReadSector(&s, licenseMsf); err != nil {
		return 0, fmt.Errorf("read license sector: %w", err)
	}
	payload, err := s.Mode2XAPayload()
	if err != nil {
		return 0, fmt.Errorf("license sector: %w", err)
	}

	license := cleanLicense(payload[:76])
	return RegionFromLicense(license)
}

func cleanLicense(blob []byte) string {
	var b strings.Builder
	for _, c := range blob {
		if c >= 'A' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// RegionFromLicense maps a cleaned license string to a region.
func RegionFromLicense(license string) (Region, error) {
	switch license {
	case "LicensedbySonyComputerEntertainmentInc":
		return RegionJapan, nil
	case "LicensedbySonyComputerEntertainmentAmerica":
		return RegionNorthAmerica, nil
	case "LicensedbySonyComputerEntertainmentEurope":
		return RegionEurope, nil
	}
	slog.Warn("couldn't identify disc license string", "license", license)
	return 0, fmt.Errorf("%q: %w", license, ErrUnknownRegion)
}

func imageCRC(image Image) (uint32, error) {
	n := min(image.SectorCount(), crcSectors)
	h := crc32.NewIEEE()
	var s Sector
	for i := uint32(0); i < n; i++ {
		msf, _ := MsfFromSectorIndex(pregapSectors + i)
		if err := image.ReadSector(&s, msf); err != nil {
			return 0, fmt.Errorf("checksum: %w", err)
		}
		h.Write(s.Data2352())
	}
	return h.Sum32(), nil
}
