package disc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

const (
	testRootLBA = 18
	testCNFLBA  = 19
)

// writeSector fills raw with a Mode 2 Form 1 sector at image index.
func writeSector(raw []byte, index uint32, payload []byte) {
	copy(raw, syncPattern[:])
	msf, _ := MsfFromSectorIndex(index + pregapSectors)
	raw[12], raw[13], raw[14] = msf.BCD()
	raw[15] = 2
	raw[18] = 0x08
	raw[22] = 0x08
	copy(raw[24:], payload)
}

func dirRecordBytes(name string, extent, size uint32, dir bool) []byte {
	l := 33 + len(name)
	if l%2 == 1 {
		l++
	}
	b := make([]byte, l)
	b[0] = byte(l)
	binary.LittleEndian.PutUint32(b[2:], extent)
	binary.BigEndian.PutUint32(b[6:], extent)
	binary.LittleEndian.PutUint32(b[10:], size)
	binary.BigEndian.PutUint32(b[14:], size)
	if dir {
		b[25] = 0x02
	}
	b[32] = byte(len(name))
	copy(b[33:], name)
	return b
}

// makeTestImage builds a minimal disc with a license string, an ISO9660
// volume and a SYSTEM.CNF file.
func makeTestImage(license string, cnf string) []byte {
	const sectors = 24
	img := make([]byte, sectors*SectorSize)
	for i := uint32(0); i < sectors; i++ {
		writeSector(img[i*SectorSize:], i, nil)
	}

	lic := make([]byte, 76)
	copy(lic, license)
	writeSector(img[4*SectorSize:], 4, lic)

	pvd := make([]byte, xaForm1Size)
	pvd[0] = 1
	copy(pvd[1:], "CD001")
	copy(pvd[recordRoot:], dirRecordBytes("\x00", testRootLBA, xaForm1Size, true))
	writeSector(img[pvdSector*SectorSize:], pvdSector, pvd)

	if cnf != "" {
		var dir []byte
		dir = append(dir, dirRecordBytes("\x00", testRootLBA, xaForm1Size, true)...)
		dir = append(dir, dirRecordBytes("\x01", testRootLBA, xaForm1Size, true)...)
		dir = append(dir, dirRecordBytes("SYSTEM.CNF;1", testCNFLBA, uint32(len(cnf)), false)...)
		writeSector(img[testRootLBA*SectorSize:], testRootLBA, dir)
		writeSector(img[testCNFLBA*SectorSize:], testCNFLBA, []byte(cnf))
	}
	return img
}

func openTestDisc(t *testing.T, data []byte, name string) *Disc {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, name, data, 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Open(fs, name, 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDisc_RegionAndSerial(t *testing.T) {
	tests := []struct {
		license string
		region  Region
	}{
		{"          Licensed  by          Sony Computer Entertainment Inc.", RegionJapan},
		{"          Licensed  by          Sony Computer Entertainment Amer  ica ", RegionNorthAmerica},
		{"          Licensed  by          Sony Computer Entertainment Euro pe   ", RegionEurope},
	}

	for _, tt := range tests {
		img := makeTestImage(tt.license, "BOOT = cdrom:\\SCES_003.44;1\r\nTCB = 4\r\n")
		d := openTestDisc(t, img, "game.bin")
		if d.Region() != tt.region {
			t.Errorf("%q: region = %s, want %s", tt.license, d.Region(), tt.region)
		}
		if d.SerialNumber() != "SCES-00344" {
			t.Errorf("serial = %q, want SCES-00344", d.SerialNumber())
		}
		if d.Image().Format() != "BIN" {
			t.Errorf("format = %q", d.Image().Format())
		}
	}
}

func TestDisc_NoSystemCNF(t *testing.T) {
	img := makeTestImage("Licensed by Sony Computer Entertainment Inc.", "")
	d := openTestDisc(t, img, "game.bin")
	if d.SerialNumber() != "" {
		t.Errorf("serial = %q, want empty", d.SerialNumber())
	}
}

func TestDisc_UnknownRegion(t *testing.T) {
	img := makeTestImage("Licensed by Nobody", "")
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "bad.bin", img, 0o644)

	_, err := Open(fs, "bad.bin", 0)
	if !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("err = %v, want ErrUnknownRegion", err)
	}
}

func TestDisc_CRCStable(t *testing.T) {
	img := makeTestImage("Licensed by Sony Computer Entertainment Inc.", "")
	a := openTestDisc(t, img, "a.bin")
	b := openTestDisc(t, img, "b.bin")
	if a.CRC() != b.CRC() {
		t.Error("identical images produced different CRCs")
	}

	img[0x100] ^= 0xff
	c := openTestDisc(t, img, "c.bin")
	if a.CRC() == c.CRC() {
		t.Error("modified image produced the same CRC")
	}
}

func TestBinImage_ReadSector(t *testing.T) {
	img := makeTestImage("Licensed by Sony Computer Entertainment Inc.", "")
	image, err := ImageFromBytes(img, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer image.Close()

	var s Sector
	msf := MustMsf(0x00, 0x02, 0x10)
	if err := image.ReadSector(&s, msf); err != nil {
		t.Fatal(err)
	}
	meta := s.Metadata()
	if meta.Msf != msf || meta.TrackMsf != MustMsf(0x00, 0x00, 0x10) || meta.Track != 1 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if hdr, ok := s.HeaderMsf(); !ok || hdr != msf {
		t.Errorf("header msf = %s", hdr)
	}
	payload, err := s.Mode2XAPayload()
	if err != nil || len(payload) != 2048 {
		t.Fatalf("payload len %d err %v", len(payload), err)
	}
	if string(payload[1:6]) != "CD001" {
		t.Error("payload does not start at the user data")
	}

	if err := image.ReadSector(&s, MustMsf(0x00, 0x01, 0x74)); !errors.Is(err, ErrSectorOutOfRange) {
		t.Errorf("pregap read err = %v", err)
	}
	if err := image.ReadSector(&s, MustMsf(0x01, 0x00, 0x00)); !errors.Is(err, ErrSectorOutOfRange) {
		t.Errorf("past end read err = %v", err)
	}
}

func TestSector_Form2Payload(t *testing.T) {
	raw := make([]byte, SectorSize)
	writeSector(raw, 0, nil)
	raw[18] = 0x20

	var s Sector
	s.SetRaw(raw, Metadata{})
	payload, err := s.Mode2XAPayload()
	if err != nil || len(payload) != 2324 {
		t.Errorf("form 2 payload len %d err %v", len(payload), err)
	}

	raw[0] = 0x12
	s.SetRaw(raw, Metadata{})
	if _, err := s.Mode2XAPayload(); !errors.Is(err, ErrBadSync) {
		t.Errorf("err = %v, want ErrBadSync", err)
	}
}

func TestOpenImage_Compressed(t *testing.T) {
	img := makeTestImage("Licensed by Sony Computer Entertainment Europe", "BOOT=cdrom:\\SLES_012.34;1\n")

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	if err != nil {
		t.Fatal(err)
	}
	xw.Write(img)
	xw.Close()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	zst := enc.EncodeAll(img, nil)
	enc.Close()

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"game.bin.xz", xzBuf.Bytes(), "BIN (xz)"},
		{"game.bin.zst", zst, "BIN (zstd)"},
	}

	for _, tt := range tests {
		d := openTestDisc(t, tt.data, tt.name)
		if d.Image().Format() != tt.format {
			t.Errorf("%s: format = %q, want %q", tt.name, d.Image().Format(), tt.format)
		}
		if d.Region() != RegionEurope {
			t.Errorf("%s: region = %s", tt.name, d.Region())
		}
		if d.SerialNumber() != "SLES-01234" {
			t.Errorf("%s: serial = %q", tt.name, d.SerialNumber())
		}
		if d.Image().SectorCount() != 24 {
			t.Errorf("%s: sectors = %d", tt.name, d.Image().SectorCount())
		}

		image, err := ImageFromBytes(tt.data, 4)
		if err != nil {
			t.Fatalf("%s: ImageFromBytes: %v", tt.name, err)
		}
		if image.Format() != tt.format || image.SectorCount() != 24 {
			t.Errorf("%s: in memory format %q, %d sectors", tt.name, image.Format(), image.SectorCount())
		}
		image.Close()
	}
}

func TestSerialFromSystemCNF(t *testing.T) {
	tests := []struct {
		cnf  string
		want string
	}{
		{"BOOT = cdrom:\\SCUS_941.63;1\r\n", "SCUS-94163"},
		{"BOOT=cdrom:SLPS_000.01;1", "SLPS-00001"},
		{"boot = cdrom:\\slus_005.94;1", "SLUS-00594"},
		{"TCB = 4\nBOOT = cdrom:\\EXE\\MAIN.EXE;1\n", "MAINEXE"},
	}

	for _, tt := range tests {
		got, err := serialFromSystemCNF([]byte(tt.cnf))
		if err != nil || got != tt.want {
			t.Errorf("%q: got %q, %v, want %q", tt.cnf, got, err, tt.want)
		}
	}

	if _, err := serialFromSystemCNF([]byte("TCB = 4\n")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing BOOT err = %v", err)
	}
}
