package pvrtc_test

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/am-sokolov/go-pvrtc/pvrtc"
)

func v3Header(pf pvrtc.PixelFormat, width, height, mips uint32) pvrtc.Header {
	return pvrtc.Header{
		Version:     pvrtc.IdentV3,
		PixelFormat: pf,
		ColorSpace:  pvrtc.ColorSpaceLinear,
		ChannelType: pvrtc.ChannelUnsignedByteNorm,
		Height:      height,
		Width:       width,
		Depth:       1,
		NumSurfaces: 1,
		NumFaces:    1,
		NumMipmaps:  mips,
	}
}

// buildV3 assembles a little-endian V3 container. MetaDataSize is taken from meta.
func buildV3(h pvrtc.Header, meta, data []byte) []byte {
	h.MetaDataSize = uint32(len(meta))
	hdr := pvrtc.MarshalHeader(h)
	out := make([]byte, 0, len(hdr)+len(meta)+len(data))
	out = append(out, hdr[:]...)
	out = append(out, meta...)
	return append(out, data...)
}

func metaEntry(fourCC, key uint32, data []byte) []byte {
	out := make([]byte, 12, 12+len(data))
	binary.LittleEndian.PutUint32(out[0:], fourCC)
	binary.LittleEndian.PutUint32(out[4:], key)
	binary.LittleEndian.PutUint32(out[8:], uint32(len(data)))
	return append(out, data...)
}

// solidBlocks returns n copies of the block (mod, colors).
func solidBlocks(n int, mod, colors uint32) []byte {
	out := make([]byte, n*pvrtc.BlockBytes)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(out[i*8:], mod)
		binary.LittleEndian.PutUint32(out[i*8+4:], colors)
	}
	return out
}

func randomBlocks(n int, seed int64) []byte {
	out := make([]byte, n*pvrtc.BlockBytes)
	rand.New(rand.NewSource(seed)).Read(out)
	return out
}

// Opaque RGB555 endpoints.
const (
	opaqueRed  uint32 = 0x8000 | 0x1F<<10
	opaqueBlue uint32 = 0x8000 | 0x1F
)

// colorWord packs endpoints A and B and the mode bit into block word 1.
func colorWord(a, b uint32, mode uint32) uint32 {
	return b<<16 | a&0xFFFE | mode&1
}

func pixelAt(pix []byte, width, x, y int) [4]byte {
	o := (y*width + x) * 4
	return [4]byte{pix[o], pix[o+1], pix[o+2], pix[o+3]}
}

// mortonOrder rearranges a row-major block grid into the Morton order containers store it in.
func mortonOrder(t testing.TB, linear []byte, gridW, gridH int) []byte {
	t.Helper()
	out := make([]byte, len(linear))
	for row := 0; row < gridH; row++ {
		for col := 0; col < gridW; col++ {
			idx, err := pvrtc.Twiddle(uint32(gridH), uint32(gridW), uint32(row), uint32(col), true)
			if err != nil {
				t.Fatalf("Twiddle(%d, %d): %v", row, col, err)
			}
			src := (row*gridW + col) * pvrtc.BlockBytes
			copy(out[int(idx)*pvrtc.BlockBytes:], linear[src:src+pvrtc.BlockBytes])
		}
	}
	return out
}
