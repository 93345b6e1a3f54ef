package reboundx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// headerOffset is the byte offset at which the numeric header of a
	// JPL DE binary file begins.
	headerOffset = 0x0A5C

	// numSlots is the fixed number of coefficient slots in a DE430/431
	// record: eleven bodies, nutation, libration, lunar mantle and TT-TDB.
	numSlots = 15

	// maxHeaderBytes bounds the header region for the largest
	// permissible constant count.
	maxHeaderBytes = 228 + 6*(65536-400)
)

// Coefficient slots, in file order.
const (
	slotMercury = iota
	slotVenus
	slotEMB
	slotMars
	slotJupiter
	slotSaturn
	slotUranus
	slotNeptune
	slotPluto
	slotMoon // geocentric
	slotSun
	slotNutation
	slotLibration
	slotMantle
	slotTTmTDB
)

// Errors returned while opening or querying an Ephemeris.
var (
	ErrTruncatedHeader    = errors.New("ephemeris: file too short for its header")
	ErrTruncatedData      = errors.New("ephemeris: file too short for its declared time span")
	ErrBadHeader          = errors.New("ephemeris: header failed sanity checks")
	ErrUnsupportedVersion = errors.New("ephemeris: unsupported DE version")
	ErrMapFailed          = errors.New("ephemeris: could not map file")
	ErrOutOfRange         = errors.New("ephemeris: date outside of file validity")
	ErrClosed             = errors.New("ephemeris: store is closed")
)

// Ephemeris reads solar system body states out of a JPL Development
// Ephemeris binary file in the DE430/431 layout. The whole file is
// memory mapped read-only at open, so any number of goroutines may query
// it concurrently without locking. Close releases the mapping and must
// not race in-flight queries.
type Ephemeris struct {
	Begin, End   float64 // Julian dates delimiting the file validity
	Step         float64 // days covered by one record
	AU           float64 // definition of the astronomical unit, in km
	EmRat        float64 // Earth/Moon mass ratio
	NumConstants int32
	Version      int32 // DE version tag

	off [numSlots]int32 // zero-based double index of each slot in a record
	ncf [numSlots]int32 // Chebyshev coefficients per component
	niv [numSlots]int32 // sub-intervals per record
	ncm [numSlots]int32 // components per slot

	recLen  int64 // bytes per record
	numRecs int64 // data records, excluding the two header records
	size    int64
	buf     []byte // the mapped region; nil once closed
	path    string
}

// OpenEphemeris opens, validates and memory maps the DE file at the
// given path. The caller owns the returned store and must Close it
// exactly once after the last query has completed.
func OpenEphemeris(path string) (*Ephemeris, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ephemeris: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("ephemeris: %w", err)
	}
	e := &Ephemeris{path: path, size: info.Size()}
	if err = e.readHeader(f); err != nil {
		return nil, err
	}
	buf, err := unix.Mmap(int(f.Fd()), 0, int(e.size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMapFailed, err)
	}
	// Record lookups jump all over the file, so readahead is wasted effort.
	unix.Madvise(buf, unix.MADV_RANDOM)
	e.buf = buf
	return e, nil
}

func (e *Ephemeris) readHeader(f *os.File) error {
	if e.size <= headerOffset {
		return ErrTruncatedHeader
	}
	hdrLen := e.size - headerOffset
	if hdrLen > maxHeaderBytes {
		hdrLen = maxHeaderBytes
	}
	hdr := make([]byte, hdrLen)
	if n, err := f.ReadAt(hdr, headerOffset); n != len(hdr) {
		return fmt.Errorf("ephemeris: header read: %w", err)
	}
	c := &cursor{buf: hdr}
	e.Begin = c.f64()
	e.End = c.f64()
	e.Step = c.f64()
	e.NumConstants = c.i32()
	e.AU = c.f64()
	e.EmRat = c.f64()
	if c.short {
		return ErrTruncatedHeader
	}
	if e.NumConstants < 400 || e.NumConstants > 65536 {
		return fmt.Errorf("%w: %d constants", ErrBadHeader, e.NumConstants)
	}
	for p := 0; p < 12; p++ {
		e.off[p] = c.i32()
		e.ncf[p] = c.i32()
		e.niv[p] = c.i32()
	}
	e.Version = c.i32()
	e.off[12] = c.i32()
	e.ncf[12] = c.i32()
	e.niv[12] = c.i32()
	// The constant values are stored between the 13th and 14th pointer
	// triples, six bytes per constant past the first four hundred.
	c.skip(6 * (int(e.NumConstants) - 400))
	for p := 13; p < numSlots; p++ {
		e.off[p] = c.i32()
		e.ncf[p] = c.i32()
		e.niv[p] = c.i32()
	}
	if c.short {
		return ErrTruncatedHeader
	}
	if e.Version != 430 && e.Version != 431 {
		return fmt.Errorf("%w: DE%d", ErrUnsupportedVersion, e.Version)
	}
	if e.Begin >= e.End || e.Step <= 0 {
		return fmt.Errorf("%w: span [%f, %f] in steps of %f", ErrBadHeader, e.Begin, e.End, e.Step)
	}
	// An Earth/Moon mass ratio away from 81.3 means a corrupt or
	// byte-swapped file.
	if e.EmRat < 81.30055 || e.EmRat > 81.3008 {
		return fmt.Errorf("%w: Earth/Moon mass ratio %f", ErrBadHeader, e.EmRat)
	}
	for p := 0; p < numSlots; p++ {
		e.ncm[p] = 3
	}
	e.ncm[slotNutation] = 2
	e.ncm[slotTTmTDB] = 1
	e.recLen = 2 * 8 // leading pair of record epochs
	for p := 0; p < numSlots; p++ {
		if e.ncf[p] < 0 || e.ncf[p] > maxChebyshevOrder || e.niv[p] < 0 {
			return fmt.Errorf("%w: slot %d counts (%d, %d)", ErrBadHeader, p, e.ncf[p], e.niv[p])
		}
		e.off[p]-- // stored one-based
		e.recLen += 8 * int64(e.ncf[p]) * int64(e.niv[p]) * int64(e.ncm[p])
	}
	recDoubles := e.recLen / 8
	for p := 0; p < numSlots; p++ {
		if e.ncf[p] == 0 || e.niv[p] == 0 {
			continue // slot not present in this file
		}
		end := int64(e.off[p]) + int64(e.ncf[p])*int64(e.niv[p])*int64(e.ncm[p])
		if e.off[p] < 2 || end > recDoubles {
			return fmt.Errorf("%w: slot %d overruns its record", ErrBadHeader, p)
		}
	}
	e.numRecs = int64(math.Ceil((e.End - e.Begin) / e.Step))
	if need := (2 + e.numRecs) * e.recLen; e.size < need {
		return fmt.Errorf("%w: %d bytes, need %d", ErrTruncatedData, e.size, need)
	}
	return nil
}

// Record returns the coefficient record covering jd as a float64 view
// into the mapped region, along with the position of jd inside that
// record as a fraction of Step in [0, 1]. The slice aliases the file
// mapping: treat it as read-only and do not retain it past Close.
func (e *Ephemeris) Record(jd float64) ([]float64, float64, error) {
	if e.buf == nil {
		return nil, 0, ErrClosed
	}
	if jd < e.Begin || jd > e.End {
		return nil, 0, fmt.Errorf("%w: jd %f not in [%f, %f]", ErrOutOfRange, jd, e.Begin, e.End)
	}
	blk := int64((jd - e.Begin) / e.Step)
	frac := math.Mod(jd-e.Begin, e.Step) / e.Step
	if blk >= e.numRecs {
		// jd == End lands one block past the last record: evaluate the
		// last record at its far edge instead.
		blk = e.numRecs - 1
		frac = 1
	}
	// The first two records hold the constant names and values.
	start := (blk + 2) * e.recLen
	rec := e.buf[start : start+e.recLen]
	// recLen is a multiple of 8 and the map is page aligned, so the view
	// below is aligned for float64.
	return unsafe.Slice((*float64)(unsafe.Pointer(&rec[0])), e.recLen/8), frac, nil
}

// Close unmaps the file. Any record slices handed out become invalid and
// further queries return ErrClosed.
func (e *Ephemeris) Close() error {
	if e.buf == nil {
		return ErrClosed
	}
	buf := e.buf
	e.buf = nil
	if err := unix.Munmap(buf); err != nil {
		return fmt.Errorf("ephemeris: %w", err)
	}
	return nil
}

// String implements the Stringer interface.
func (e *Ephemeris) String() string {
	return fmt.Sprintf("DE%d [%.1f, %.1f] (%d records of %g days)", e.Version, e.Begin, e.End, e.numRecs, e.Step)
}

// cursor walks the header region with explicit bounds checking, so a
// truncated file surfaces as a flag instead of a slice panic.
type cursor struct {
	buf   []byte
	pos   int
	short bool
}

func (c *cursor) f64() float64 {
	if c.pos+8 > len(c.buf) {
		c.short = true
		return 0
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(c.buf[c.pos:]))
	c.pos += 8
	return v
}

func (c *cursor) i32() int32 {
	if c.pos+4 > len(c.buf) {
		c.short = true
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(c.buf[c.pos:]))
	c.pos += 4
	return v
}

func (c *cursor) skip(n int) {
	c.pos += n
	if c.pos < 0 || c.pos > len(c.buf) {
		c.short = true
	}
}
