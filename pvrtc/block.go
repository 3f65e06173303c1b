package pvrtc

import (
	"encoding/binary"
	"fmt"
)

// BlockBytes is the size in bytes of one PVRTC block.
const BlockBytes = 8

// Block dimensions in pixels. Blocks are always 4 rows tall; 2bpp blocks are 8 pixels wide and
// 4bpp blocks are 4 pixels wide.
const (
	blockHeight    = 4
	blockWidth2bpp = 8
	blockWidth4bpp = 4
)

// punchThroughCode is the 4bpp alternate-mode modulation code that forces alpha to zero.
const punchThroughCode = 2

// Block is one 64-bit PVRTC block: word 0 holds the modulation bits, word 1 holds the two color
// endpoints and the mode bit.
type Block [2]uint32

// ParseBlock reads a block from the first BlockBytes bytes of b.
func ParseBlock(b []byte) (Block, error) {
	if len(b) < BlockBytes {
		return Block{}, errTruncated("pvrtc block", BlockBytes, len(b))
	}
	return blockFrom(b), nil
}

func blockFrom(b []byte) Block {
	_ = b[7]
	return Block{binary.LittleEndian.Uint32(b[0:4]), binary.LittleEndian.Uint32(b[4:8])}
}

func blockAt(blocks []byte, idx uint32) Block {
	off := int(idx) * BlockBytes
	return blockFrom(blocks[off : off+BlockBytes])
}

// ModeBit returns the block's mode flag: for 2bpp it selects checkerboard-interpolated
// modulation, for 4bpp the punch-through modulation table.
func (blk Block) ModeBit() uint32 { return blk[1] & 1 }

// Endpoints returns the A and B colors in their stored 5/5/5/4 precision.
func (blk Block) Endpoints() (a, b [4]uint8) {
	ab := unpackColors(blk)
	for k := 0; k < 4; k++ {
		a[k] = uint8(ab[0][k])
		b[k] = uint8(ab[1][k])
	}
	return a, b
}

func (blk Block) String() string {
	a, b := blk.Endpoints()
	return fmt.Sprintf("A=%v B=%v mode=%d mod=%#08x", a, b, blk.ModeBit(), blk[0])
}

// endpoint is an (R, G, B, A) color with 5-bit RGB and 4-bit alpha.
type endpoint [4]int

// unpackColors extracts both endpoints of b.
//
// An endpoint with its top bit set is opaque RGB555; otherwise it is ARGB3444 (A) or ARGB3443
// (B) widened to 5/5/5/4. The blue widening of the translucent branch always updates endpoint A,
// as the hardware reference does.
func unpackColors(b Block) (ab [2]endpoint) {
	raw := [2]uint32{b[1] & 0xFFFE, b[1] >> 16}

	for i := 0; i < 2; i++ {
		r := raw[i]
		if r&(1<<15) != 0 {
			ab[i][0] = int(r>>10) & 0x1F
			ab[i][1] = int(r>>5) & 0x1F
			ab[i][2] = int(r) & 0x1F
			if i == 0 {
				ab[0][2] |= ab[0][2] >> 4
			}
			ab[i][3] = 0xF
			continue
		}

		ab[i][0] = int(r>>7) & 0x1E
		ab[i][1] = int(r>>3) & 0x1E
		ab[i][0] |= ab[i][0] >> 4
		ab[i][1] |= ab[i][1] >> 4

		ab[i][2] = int(r&0xF) << 1
		if i == 0 {
			ab[0][2] |= ab[0][2] >> 3
		} else {
			ab[0][2] |= ab[0][2] >> 4
		}

		ab[i][3] = int(r>>11) & 0xE
	}
	return ab
}

// modulationGrid holds the modulation codes and modes of a 2x2 block neighborhood. Rows 0-3
// belong to the upper blocks, rows 4-7 to the lower ones; columns are split at the block width.
type modulationGrid struct {
	code [8][16]uint8
	mode [8][16]uint8
}

// unpack writes the modulation data of b into the grid at (x0, y0).
func (g *modulationGrid) unpack(b Block, is2bpp bool, x0, y0 int) error {
	mode := uint8(b.ModeBit())
	bits := b[0]

	switch {
	case is2bpp && mode != 0:
		// Only the checkerboard is stored; the other pixels are averaged at lookup.
		for y := 0; y < blockHeight; y++ {
			for x := 0; x < blockWidth2bpp; x++ {
				g.mode[y0+y][x0+x] = mode
				if (x^y)&1 == 0 {
					g.code[y0+y][x0+x] = uint8(bits & 3)
					bits >>= 2
				}
			}
		}
	case is2bpp:
		for y := 0; y < blockHeight; y++ {
			for x := 0; x < blockWidth2bpp; x++ {
				g.mode[y0+y][x0+x] = mode
				if bits&1 != 0 {
					g.code[y0+y][x0+x] = 3
				} else {
					g.code[y0+y][x0+x] = 0
				}
				bits >>= 1
			}
		}
	default:
		for y := 0; y < blockHeight; y++ {
			for x := 0; x < blockWidth4bpp; x++ {
				g.mode[y0+y][x0+x] = mode
				g.code[y0+y][x0+x] = uint8(bits & 3)
				bits >>= 2
			}
		}
	}

	if bits != 0 {
		return newError(ErrCorruptBlock, fmt.Sprintf("pvrtc: %#08x modulation bits left over", bits))
	}
	return nil
}

var (
	modTableStandard     = [4]int{0, 3, 5, 8}
	modTablePunchThrough = [4]int{0, 4, 4, 8}
)

// value returns the modulation weight (in eighths) of pixel (x, y) and whether the pixel is
// punched through.
func (g *modulationGrid) value(x, y int, is2bpp bool) (mod int, punch bool) {
	y = localCoord(y, blockHeight)
	if is2bpp {
		x = localCoord(x, blockWidth2bpp)
	} else {
		x = localCoord(x, blockWidth4bpp)
	}

	code := g.code[y][x]
	switch {
	case g.mode[y][x] == 0:
		return modTableStandard[code], false
	case is2bpp:
		if (x^y)&1 == 0 {
			return modTableStandard[code], false
		}
		return (modTableStandard[g.code[y-1][x]] +
			modTableStandard[g.code[y+1][x]] +
			modTableStandard[g.code[y][x-1]] +
			modTableStandard[g.code[y][x+1]] + 2) / 4, false
	default:
		return modTablePunchThrough[code], code == punchThroughCode
	}
}

// localCoord maps a pixel coordinate into the 2x2 neighborhood grid: pixels in the first half
// of a block sit in the lower/right block of the neighborhood, pixels in the second half in the
// upper/left one.
func localCoord(v, size int) int {
	half := size >> 1
	return v&(size-1) | (^v&half)<<1
}
