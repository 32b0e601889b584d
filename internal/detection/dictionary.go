package detection

import (
	"math/bits"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
)

// ErrUnknownMarker is returned for marker IDs outside a dictionary.
var ErrUnknownMarker = errors.New("marker id not in dictionary")

// Dictionary is a set of square binary codes.
//
// A code holds Size*Size bits in row-major order, most significant bit first:
// cell (r, c) is bit Size*Size-1-(r*Size+c). A set bit is a white cell.
type Dictionary struct {
	// Name identifies the dictionary in logs and tool output.
	Name string

	// Size is the number of data cells per side, excluding the black border.
	Size int

	// Codes holds one code per marker ID; the ID is the index.
	Codes []uint64

	// MaxCorrection is the number of flipped bits Match will still accept.
	MaxCorrection int
}

const (
	defaultDictionaryName  = "5x5_250"
	defaultDictionarySeed  = 0x5a5a250
	defaultMinimumDistance = 5
)

var (
	defaultDictionary     *Dictionary
	defaultDictionaryOnce sync.Once
)

// DefaultDictionary returns the built-in 250 marker dictionary with 5x5 data
// cells. Codes are generated deterministically with a minimum Hamming
// distance of 5 between every pair of codes under every rotation, so up to two
// flipped bits are corrected.
func DefaultDictionary() *Dictionary {
	defaultDictionaryOnce.Do(func() {
		defaultDictionary = GenerateDictionary(defaultDictionaryName, 5, 250, defaultMinimumDistance, defaultDictionarySeed)
	})
	return defaultDictionary
}

// GenerateDictionary greedily draws random codes from a seeded source and
// keeps those that stay at least minDistance away from every accepted code,
// including all rotations and the code's own rotations.
func GenerateDictionary(name string, size, count, minDistance int, seed int64) *Dictionary {
	nbits := size * size
	mask := uint64(1)<<uint(nbits) - 1
	rng := rand.New(rand.NewSource(seed))

	d := &Dictionary{
		Name:          name,
		Size:          size,
		Codes:         make([]uint64, 0, count),
		MaxCorrection: (minDistance - 1) / 2,
	}
	for len(d.Codes) < count {
		candidate := rng.Uint64() & mask
		if selfDistance(candidate, size) < minDistance {
			continue
		}
		if d.distanceTo(candidate) < minDistance {
			continue
		}
		d.Codes = append(d.Codes, candidate)
	}
	return d
}

// Len returns the number of markers in the dictionary.
func (d *Dictionary) Len() int { return len(d.Codes) }

// Code returns the code of a marker ID.
func (d *Dictionary) Code(id int) (uint64, error) {
	if id < 0 || id >= len(d.Codes) {
		return 0, errors.Wrapf(ErrUnknownMarker, "id %d, dictionary %s has %d markers", id, d.Name, len(d.Codes))
	}
	return d.Codes[id], nil
}

// Match finds the marker whose code, rotated clockwise rotation times, is
// closest to observed. ok is false when the closest code needs more than
// MaxCorrection bit flips.
func (d *Dictionary) Match(observed uint64) (id, rotation, distance int, ok bool) {
	id, distance = -1, d.Size*d.Size+1
	for i, code := range d.Codes {
		rotated := code
		for r := 0; r < 4; r++ {
			if dist := bits.OnesCount64(observed ^ rotated); dist < distance {
				id, rotation, distance = i, r, dist
			}
			rotated = rotateCW(rotated, d.Size)
		}
	}
	return id, rotation, distance, id >= 0 && distance <= d.MaxCorrection
}

// distanceTo returns the smallest Hamming distance between any rotation of
// code and the accepted codes.
func (d *Dictionary) distanceTo(code uint64) int {
	best := d.Size*d.Size + 1
	rotated := code
	for r := 0; r < 4; r++ {
		for _, c := range d.Codes {
			if dist := bits.OnesCount64(rotated ^ c); dist < best {
				best = dist
			}
		}
		rotated = rotateCW(rotated, d.Size)
	}
	return best
}

// selfDistance is the smallest distance between a code and its own rotations.
func selfDistance(code uint64, size int) int {
	best := size*size + 1
	rotated := code
	for r := 1; r < 4; r++ {
		rotated = rotateCW(rotated, size)
		if dist := bits.OnesCount64(rotated ^ code); dist < best {
			best = dist
		}
	}
	return best
}

// cellBit returns the bit mask of cell (r, c).
func cellBit(r, c, size int) uint64 {
	return uint64(1) << uint(size*size-1-(r*size+c))
}

// rotateCW rotates a code grid a quarter turn clockwise: the top-left cell
// moves to the top-right.
func rotateCW(code uint64, size int) uint64 {
	var out uint64
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			// out[r][c] = in[size-1-c][r]
			if code&cellBit(size-1-c, r, size) != 0 {
				out |= cellBit(r, c, size)
			}
		}
	}
	return out
}
