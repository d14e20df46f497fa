package disc

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("file not found")

const (
	pvdSector   = 16
	recordRoot  = 156
	maxFileSize = 64 * 1024
)

// dirRecord is the subset of an ISO9660 directory record we use.
type dirRecord struct {
	name   string
	extent uint32
	size   uint32
	dir    bool
}

func readPayload(image Image, lba uint32) ([]byte, error) {
	msf, ok := MsfFromSectorIndex(pregapSectors + lba)
	if !ok {
		return nil, fmt.Errorf("lba %d: %w", lba, ErrSectorOutOfRange)
	}
	var s Sector
	if err := image.ReadSector(&s, msf); err != nil {
		return nil, err
	}
	return s.Mode2XAPayload()
}

func parseRecord(b []byte) dirRecord {
	nameLen := int(b[32])
	return dirRecord{
		name:   string(b[33 : 33+nameLen]),
		extent: binary.LittleEndian.Uint32(b[2:6]),
		size:   binary.LittleEndian.Uint32(b[10:14]),
		dir:    b[25]&0x02 != 0,
	}
}

// rootDirectory returns the root directory record from the primary volume
// descriptor.
func rootDirectory(image Image) (dirRecord, error) {
	pvd, err := readPayload(image, pvdSector)
	if err != nil {
		return dirRecord{}, fmt.Errorf("volume descriptor: %w", err)
	}
	if pvd[0] != 1 || string(pvd[1:6]) != "CD001" {
		return dirRecord{}, fmt.Errorf("no primary volume descriptor: %w", ErrBadFormat)
	}
	return parseRecord(pvd[recordRoot : recordRoot+34]), nil
}

// lookup finds name (without the ";1" version suffix) in directory dir.
func lookup(image Image, dir dirRecord, name string) (dirRecord, error) {
	sectors := (dir.size + xaForm1Size - 1) / xaForm1Size
	for i := uint32(0); i < sectors; i++ {
		data, err := readPayload(image, dir.extent+i)
		if err != nil {
			return dirRecord{}, err
		}
		for off := 0; off < xaForm1Size; {
			l := int(data[off])
			if l == 0 {
				// Records never straddle sectors
				break
			}
			if off+l > len(data) || l < 34 {
				return dirRecord{}, fmt.Errorf("directory record at %d: %w", off, ErrBadFormat)
			}
			rec := parseRecord(data[off : off+l])
			base, _, _ := strings.Cut(rec.name, ";")
			if strings.EqualFold(base, name) {
				return rec, nil
			}
			off += l
		}
	}
	return dirRecord{}, fmt.Errorf("%s: %w", name, ErrNotFound)
}

// ReadFile returns the contents of a file in the root directory.
func ReadFile(image Image, name string) ([]byte, error) {
	root, err := rootDirectory(image)
	if err != nil {
		return nil, err
	}
	rec, err := lookup(image, root, name)
	if err != nil {
		return nil, err
	}
	if rec.dir || rec.size > maxFileSize {
		return nil, fmt.Errorf("%s: unexpected entry: %w", name, ErrBadFormat)
	}

	out := make([]byte, 0, rec.size)
	for lba := rec.extent; uint32(len(out)) < rec.size; lba++ {
		data, err := readPayload(image, lba)
		if err != nil {
			return nil, err
		}
		out = append(out, data[:min(len(data), int(rec.size)-len(out))]...)
	}
	return out, nil
}

// serialNumber extracts the serial from the BOOT line of SYSTEM.CNF, for
// instance "BOOT = cdrom:\SCES_003.44;1" gives "SCES-00344".
func serialNumber(image Image) (string, error) {
	cnf, err := ReadFile(image, "SYSTEM.CNF")
	if err != nil {
		return "", err
	}
	return serialFromSystemCNF(cnf)
}

func serialFromSystemCNF(cnf []byte) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(cnf))
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "BOOT") {
			continue
		}
		val = strings.TrimSpace(val)
		if i := strings.LastIndexAny(val, `\:`); i >= 0 {
			val = val[i+1:]
		}
		val, _, _ = strings.Cut(val, ";")
		val = strings.ReplaceAll(val, ".", "")
		val = strings.ReplaceAll(val, "_", "-")
		if val == "" {
			break
		}
		return strings.ToUpper(val), nil
	}
	return "", fmt.Errorf("no BOOT entry in SYSTEM.CNF: %w", ErrNotFound)
}
