package pvrtc

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
)

// BlockLayout selects how block indices map to positions in the compressed stream.
type BlockLayout uint8

const (
	// LayoutDefault uses Morton order when Options.Tiled is set and row-major order otherwise.
	LayoutDefault BlockLayout = iota
	// LayoutLinear forces row-major block order.
	LayoutLinear
	// LayoutMorton forces Morton (twiddled) block order.
	LayoutMorton
)

func (l BlockLayout) String() string {
	switch l {
	case LayoutDefault:
		return "default"
	case LayoutLinear:
		return "linear"
	case LayoutMorton:
		return "morton"
	}
	return fmt.Sprintf("BlockLayout(%d)", uint8(l))
}

// Options controls PVRTC decompression.
type Options struct {
	// Tiled wraps the block neighborhood around the image edges instead of clamping it.
	Tiled bool

	// Layout overrides the block order. LayoutDefault follows Tiled for bare block data; file
	// decoding resolves it to LayoutMorton.
	Layout BlockLayout

	// Workers is the number of goroutines decoding row bands. Values <= 0 use GOMAXPROCS.
	Workers int
}

func (o Options) twiddled() bool {
	switch o.Layout {
	case LayoutLinear:
		return false
	case LayoutMorton:
		return true
	}
	return o.Tiled
}

// Decompress decodes PVRTC blocks into a width*height RGBA8 buffer.
//
// The block grid is max(2, width/blockWidth) x max(2, height/4) blocks, where blockWidth is 8
// for 2bpp and 4 for 4bpp data. Width and height must be powers of two. With tiled set the
// neighborhood wraps around the image edges and blocks are read in Morton order; otherwise edges
// clamp and blocks are row-major. DecompressWithOptions sets the two independently.
func Decompress(blocks []byte, is2bpp bool, width, height uint32, tiled bool) ([]byte, error) {
	return DecompressWithOptions(blocks, is2bpp, width, height, Options{Tiled: tiled})
}

// DecompressWithOptions is Decompress with explicit options.
func DecompressWithOptions(blocks []byte, is2bpp bool, width, height uint32, opts Options) ([]byte, error) {
	g, err := newGeometry(is2bpp, width, height, opts)
	if err != nil {
		return nil, err
	}
	if err := g.checkBlocks(blocks); err != nil {
		return nil, err
	}
	dst := make([]byte, g.width*g.height*4)
	if err := decompress(g, blocks, dst, opts.Workers); err != nil {
		return nil, err
	}
	return dst, nil
}

// DecompressInto decodes into a caller-provided buffer of at least width*height*4 bytes.
// On error the contents of dst are unspecified.
func DecompressInto(dst, blocks []byte, is2bpp bool, width, height uint32, opts Options) error {
	g, err := newGeometry(is2bpp, width, height, opts)
	if err != nil {
		return err
	}
	if err := g.checkBlocks(blocks); err != nil {
		return err
	}
	if len(dst) < g.width*g.height*4 {
		return newError(ErrBadParam, fmt.Sprintf("pvrtc: output buffer too small: want %d bytes, got %d", g.width*g.height*4, len(dst)))
	}
	return decompress(g, blocks, dst[:g.width*g.height*4], opts.Workers)
}

// BlockGrid returns the block grid dimensions Decompress reads for an image of width x height.
func BlockGrid(is2bpp bool, width, height int) (blocksX, blocksY int) {
	bw := blockWidth4bpp
	if is2bpp {
		bw = blockWidth2bpp
	}
	return max(2, width/bw), max(2, height/blockHeight)
}

// geometry is the validated shape of one decode.
type geometry struct {
	width, height int
	blockW        int
	gridW, gridH  int
	is2bpp        bool
	tiled         bool
	twiddled      bool
}

func newGeometry(is2bpp bool, width, height uint32, opts Options) (geometry, error) {
	if !isPow2(width) || !isPow2(height) {
		return geometry{}, newError(ErrInvalidDimensions,
			fmt.Sprintf("pvrtc: image dimensions %dx%d are not powers of two", width, height))
	}
	if uint64(width)*uint64(height) > math.MaxInt/4 {
		return geometry{}, newError(ErrInvalidDimensions,
			fmt.Sprintf("pvrtc: image dimensions %dx%d are too large", width, height))
	}
	if opts.Layout > LayoutMorton {
		return geometry{}, newError(ErrBadParam, fmt.Sprintf("pvrtc: invalid block layout %d", uint8(opts.Layout)))
	}

	g := geometry{
		width:    int(width),
		height:   int(height),
		blockW:   blockWidth4bpp,
		is2bpp:   is2bpp,
		tiled:    opts.Tiled,
		twiddled: opts.twiddled(),
	}
	if is2bpp {
		g.blockW = blockWidth2bpp
	}
	g.gridW, g.gridH = BlockGrid(is2bpp, g.width, g.height)
	return g, nil
}

func (g geometry) checkBlocks(blocks []byte) error {
	need := g.gridW * g.gridH * BlockBytes
	if len(blocks) < need {
		return errTruncated("pvrtc blocks", need, len(blocks))
	}
	return nil
}

func limitCoord(v, size int, tiled bool) int {
	if tiled {
		return v & (size - 1)
	}
	return min(max(v, 0), size-1)
}

// neighborhood caches the unpacked 2x2 blocks around the current pixel. Each decoding goroutine
// owns one.
type neighborhood struct {
	valid  bool
	index  [4]uint32
	colors [2][2][2]endpoint // [row][col][A, B]
	grid   modulationGrid
}

func (n *neighborhood) load(g *geometry, blocks []byte, index [4]uint32) error {
	n.valid = false
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			b := blockAt(blocks, index[i*2+j])
			n.colors[i][j] = unpackColors(b)
			if err := n.grid.unpack(b, g.is2bpp, j*g.blockW, i*blockHeight); err != nil {
				return err
			}
		}
	}
	n.index = index
	n.valid = true
	return nil
}

// decodeRows decodes rows [y0, y1) into dst.
func decodeRows(g *geometry, blocks, dst []byte, y0, y1 int, n *neighborhood) error {
	gw, gh := uint32(g.gridW), uint32(g.gridH)
	for y := y0; y < y1; y++ {
		by := limitCoord(y-blockHeight/2, g.height, g.tiled) / blockHeight
		byp1 := limitCoord(by+1, g.gridH, g.tiled)

		for x := 0; x < g.width; x++ {
			bx := limitCoord(x-g.blockW/2, g.width, g.tiled) / g.blockW
			bxp1 := limitCoord(bx+1, g.gridW, g.tiled)

			index := [4]uint32{
				twiddle(gh, gw, uint32(by), uint32(bx), g.twiddled),
				twiddle(gh, gw, uint32(by), uint32(bxp1), g.twiddled),
				twiddle(gh, gw, uint32(byp1), uint32(bx), g.twiddled),
				twiddle(gh, gw, uint32(byp1), uint32(bxp1), g.twiddled),
			}
			if !n.valid || index != n.index {
				if err := n.load(g, blocks, index); err != nil {
					return err
				}
			}

			a := interpolate(&n.colors[0][0][0], &n.colors[0][1][0], &n.colors[1][0][0], &n.colors[1][1][0], g.is2bpp, x, y)
			b := interpolate(&n.colors[0][0][1], &n.colors[0][1][1], &n.colors[1][0][1], &n.colors[1][1][1], g.is2bpp, x, y)
			mod, punch := n.grid.value(x, y, g.is2bpp)
			c := modulate(&a, &b, mod)
			if punch {
				c[3] = 0
			}

			o := (x + y*g.width) * 4
			dst[o+0] = uint8(c[0])
			dst[o+1] = uint8(c[1])
			dst[o+2] = uint8(c[2])
			dst[o+3] = uint8(c[3])
		}
	}
	return nil
}

// parallelMinPixels is the image size below which decoding stays on the calling goroutine.
const parallelMinPixels = 64 * 64

func decompress(g geometry, blocks, dst []byte, workers int) error {
	bands := (g.height + blockHeight - 1) / blockHeight
	procs := workers
	if procs <= 0 {
		procs = runtime.GOMAXPROCS(0)
	}
	if procs > bands {
		procs = bands
	}

	if procs <= 1 || g.width*g.height < parallelMinPixels {
		var n neighborhood
		return decodeRows(&g, blocks, dst, 0, g.height, &n)
	}

	var next uint32
	var stop uint32
	var firstErr error
	var errOnce sync.Once

	var wg sync.WaitGroup
	wg.Add(procs)
	for w := 0; w < procs; w++ {
		go func() {
			defer wg.Done()
			var n neighborhood
			for {
				if atomic.LoadUint32(&stop) != 0 {
					return
				}
				band := int(atomic.AddUint32(&next, 1) - 1)
				if band >= bands {
					return
				}
				y0 := band * blockHeight
				y1 := min(y0+blockHeight, g.height)
				if err := decodeRows(&g, blocks, dst, y0, y1, &n); err != nil {
					errOnce.Do(func() {
						firstErr = err
						atomic.StoreUint32(&stop, 1)
					})
					return
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}
