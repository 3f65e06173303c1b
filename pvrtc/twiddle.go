package pvrtc

import "fmt"

func isPow2(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// Twiddle maps block (row, col) of a heightBlocks x widthBlocks grid to its index in the
// compressed stream.
//
// With tiled false the layout is row-major. With tiled true the layout is Morton order: bits of
// row and col are interleaved (row bits even, col bits odd) up to the smaller dimension, and the
// remaining high bits of the larger dimension are appended above them.
//
// Both dimensions must be powers of two.
func Twiddle(heightBlocks, widthBlocks, row, col uint32, tiled bool) (uint32, error) {
	if !isPow2(heightBlocks) || !isPow2(widthBlocks) {
		return 0, newError(ErrInvalidDimensions,
			fmt.Sprintf("pvrtc: block grid %dx%d is not power-of-two", widthBlocks, heightBlocks))
	}
	if row >= heightBlocks || col >= widthBlocks {
		return 0, newError(ErrBadParam,
			fmt.Sprintf("pvrtc: block (%d,%d) outside %dx%d grid", col, row, widthBlocks, heightBlocks))
	}
	return twiddle(heightBlocks, widthBlocks, row, col, tiled), nil
}

// twiddle is Twiddle without argument checks.
func twiddle(heightBlocks, widthBlocks, row, col uint32, tiled bool) uint32 {
	if !tiled {
		return row*widthBlocks + col
	}

	minDim := widthBlocks
	rest := row
	if heightBlocks < widthBlocks {
		minDim = heightBlocks
		rest = col
	}

	var out uint32
	shift := uint32(0)
	dst := uint32(1)
	for src := uint32(1); src < minDim; src <<= 1 {
		if row&src != 0 {
			out |= dst
		}
		if col&src != 0 {
			out |= dst << 1
		}
		dst <<= 2
		shift++
	}
	return out | (rest>>shift)<<(2*shift)
}
