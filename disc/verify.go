package disc

import "fmt"

// VerifyReport summarizes a scan of every sector of an image.
type VerifyReport struct {
	Sectors uint32
	// Sectors without the data sync pattern, audio or damaged
	NoSync uint32
	// Data sectors whose header position does not match their place in
	// the image
	BadHeader uint32
	// First offending position, if any
	FirstBad Msf
}

// OK reports whether every data sector is where its header says.
func (r VerifyReport) OK() bool {
	return r.BadHeader == 0
}

// Verify reads every sector of image and checks the header of data
// sectors. progress, when set, is called after each sector.
func Verify(image Image, progress func()) (VerifyReport, error) {
	var (
		r VerifyReport
		s Sector
	)
	for i := uint32(0); i < image.SectorCount(); i++ {
		msf, ok := MsfFromSectorIndex(pregapSectors + i)
		if !ok {
			return r, fmt.Errorf("sector %d: %w", i, ErrSectorOutOfRange)
		}
		if err := image.ReadSector(&s, msf); err != nil {
			return r, err
		}
		r.Sectors++

		switch header, valid := s.HeaderMsf(); {
		case !s.HasSync():
			r.NoSync++
		case !valid || header != msf:
			if r.BadHeader == 0 {
				r.FirstBad = msf
			}
			r.BadHeader++
		}

		if progress != nil {
			progress()
		}
	}
	return r, nil
}
