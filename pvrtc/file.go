package pvrtc

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
)

// File is a parsed PVR container. Metadata and Levels alias the input buffer.
type File struct {
	Header Header
	Format Format

	// Metadata is the raw metadata block that follows the header.
	Metadata []byte

	// Levels holds the pixel data of each mip level, largest first. Only the first surface and
	// face is stored, as files with more than one are rejected.
	Levels [][]byte

	order binary.ByteOrder
}

// ParseFile parses and validates a full PVR container.
func ParseFile(data []byte) (*File, error) {
	h, reversed, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Depth > 1 {
		return nil, newError(ErrUnsupportedDepth, fmt.Sprintf("pvrtc: image depth %d is unsupported", h.Depth))
	}
	if h.NumFaces > 1 || h.NumSurfaces > 1 {
		return nil, newError(ErrUnsupportedLayout,
			fmt.Sprintf("pvrtc: %d faces x %d surfaces is unsupported", h.NumFaces, h.NumSurfaces))
	}
	format, err := MapFormat(h.PixelFormat, h.ChannelType)
	if err != nil {
		return nil, err
	}

	offset := uint64(HeaderSize) + uint64(h.MetaDataSize)
	if offset > uint64(len(data)) {
		return nil, errTruncated("pvr metadata", int(min(offset, math.MaxInt)), len(data))
	}

	// Stop summing as soon as the data runs out so a huge mip count cannot drive allocation.
	mips := h.MipCount()
	need := offset
	for i := 0; i < mips; i++ {
		need = addSat(need, mipLevelBytes(format, uint64(h.Width), uint64(h.Height), i))
		if need > uint64(len(data)) {
			return nil, errTruncated("pvr pixel data", int(min(need, math.MaxInt)), len(data))
		}
	}

	f := &File{
		Header:   h,
		Format:   format,
		Metadata: data[HeaderSize:offset],
		Levels:   make([][]byte, mips),
		order:    binary.ByteOrder(binary.LittleEndian),
	}
	if reversed {
		f.order = binary.BigEndian
	}
	for i := range f.Levels {
		sz := mipLevelBytes(format, uint64(h.Width), uint64(h.Height), i)
		f.Levels[i] = data[offset : offset+sz]
		offset += sz
	}
	return f, nil
}

// LevelDimensions returns the pixel dimensions of mip level.
func (f *File) LevelDimensions(level int) (width, height int) {
	return MipLevelDimensions(int(f.Header.Width), int(f.Header.Height), level)
}

// MipLevelDimensions returns the dimensions of mip level for a base image of width x height.
func MipLevelDimensions(width, height, level int) (w, h int) {
	w = max(1, width>>level)
	h = max(1, height>>level)
	return w, h
}

// MipLevelSize returns the number of bytes mip level occupies for format f.
//
// Dimensions below the format's minimum storage footprint are padded up to it, so a PVRTC 4bpp
// 1x1 level still stores a full 8x8 area.
func MipLevelSize(f Format, width, height, level int) int {
	if width <= 0 || height <= 0 || level < 0 {
		return 0
	}
	n := mipLevelBytes(f, uint64(width), uint64(height), level)
	return int(min(n, math.MaxInt))
}

// mipLevelBytes saturates at math.MaxUint64 instead of wrapping.
func mipLevelBytes(f Format, width, height uint64, level int) uint64 {
	w, h := width, height
	if level > 0 {
		if level >= 64 {
			w, h = 1, 1
		} else {
			w = max(1, w>>uint(level))
			h = max(1, h>>uint(level))
		}
	}
	minW, minH := f.MinDimensions()
	w = roundUp(max(w, uint64(minW)), uint64(minW))
	h = roundUp(max(h, uint64(minH)), uint64(minH))

	hi, area := bits.Mul64(w, h)
	if hi != 0 {
		return math.MaxUint64
	}
	hi, bitsTotal := bits.Mul64(area, uint64(f.BitsPerPixel()))
	if hi != 0 {
		return math.MaxUint64
	}
	return bitsTotal / 8
}

func roundUp(v, m uint64) uint64 {
	if m <= 1 {
		return v
	}
	return (v + m - 1) / m * m
}

func addSat(a, b uint64) uint64 {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return s
}
