package pvrtc

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Container magic values as read little-endian from offset 0 (V3) or 44 (V2).
const (
	IdentV3         uint32 = 0x03525650 // "PVR\x03"
	IdentV3Reversed uint32 = 0x50565203
	IdentV2         uint32 = 0x21525650 // "PVR!"
	IdentV2Reversed uint32 = 0x50565221
)

// HeaderSize is the size in bytes of both the V2 and the V3 header layouts.
const HeaderSize = 52

// FlagPremultiplied is the V3 flag for premultiplied alpha.
const FlagPremultiplied uint32 = 1 << 1

// V2 header flags, above the pixel type byte.
const (
	legacyFlagTwiddle  uint32 = 1 << 9
	legacyFlagCubemap  uint32 = 1 << 12
	legacyFlagVolume   uint32 = 1 << 14
	legacyFlagAlpha    uint32 = 1 << 15
	legacyFlagFlipY    uint32 = 1 << 16
	legacyPixelTypeMsk uint32 = 0xFF
)

// LegacyInfo records where a Header came from when it was converted from a V2 header.
type LegacyInfo struct {
	FromV2 bool
	// Flags is the V2 flags word, pixel type byte included.
	Flags uint32
}

// Twiddled reports whether the V2 header declared Morton-ordered block data.
func (l LegacyInfo) Twiddled() bool { return l.FromV2 && l.Flags&legacyFlagTwiddle != 0 }

// FlipY reports whether the V2 header declared a vertically flipped image.
func (l LegacyInfo) FlipY() bool { return l.FromV2 && l.Flags&legacyFlagFlipY != 0 }

// Header is the canonical (V3) PVR texture header.
//
// V2 headers are converted into this field set by ParseHeader, and byte-reversed V3 headers are
// swapped into host order, so consumers never see either variant.
type Header struct {
	Version      uint32
	Flags        uint32
	PixelFormat  PixelFormat
	ColorSpace   ColorSpace
	ChannelType  ChannelType
	Height       uint32
	Width        uint32
	Depth        uint32
	NumSurfaces  uint32
	NumFaces     uint32
	NumMipmaps   uint32
	MetaDataSize uint32

	Legacy LegacyInfo
}

func (h Header) String() string {
	return fmt.Sprintf("PVR %dx%dx%d %s, %d mips, %d faces, %d surfaces, %d bytes metadata",
		h.Width, h.Height, h.Depth, h.PixelFormat, h.NumMipmaps, h.NumFaces, h.NumSurfaces, h.MetaDataSize)
}

// MipCount returns the number of stored mip levels; a zero count is read as one.
func (h Header) MipCount() int {
	if h.NumMipmaps == 0 {
		return 1
	}
	return int(h.NumMipmaps)
}

// ParseHeader parses the header at the start of data.
//
// The same 52 bytes are tried as a V3 header (forward or byte-reversed magic) and then as a V2
// header. A V2 header is returned converted to the V3 field set.
func ParseHeader(data []byte) (Header, error) {
	h, _, err := parseHeader(data)
	return h, err
}

func parseHeader(data []byte) (h Header, reversed bool, err error) {
	if len(data) < HeaderSize {
		return Header{}, false, errTruncated("pvr header", HeaderSize, len(data))
	}
	raw := readHeaderV3(data)
	switch raw.Version {
	case IdentV3:
		return raw, false, nil
	case IdentV3Reversed:
		return SwapHeader(raw), true, nil
	}

	v2 := readHeaderV2(data)
	switch v2.pvrTag {
	case IdentV2:
		return convertV2(v2), false, nil
	case IdentV2Reversed:
		return convertV2(v2.swapped()), true, nil
	}
	return Header{}, false, newError(ErrUnrecognizedFormat,
		fmt.Sprintf("pvrtc: unrecognized container magic %#08x", raw.Version))
}

func readHeaderV3(b []byte) Header {
	_ = b[HeaderSize-1]
	return Header{
		Version:      binary.LittleEndian.Uint32(b[0:4]),
		Flags:        binary.LittleEndian.Uint32(b[4:8]),
		PixelFormat:  PixelFormat(binary.LittleEndian.Uint64(b[8:16])),
		ColorSpace:   ColorSpace(binary.LittleEndian.Uint32(b[16:20])),
		ChannelType:  ChannelType(binary.LittleEndian.Uint32(b[20:24])),
		Height:       binary.LittleEndian.Uint32(b[24:28]),
		Width:        binary.LittleEndian.Uint32(b[28:32]),
		Depth:        binary.LittleEndian.Uint32(b[32:36]),
		NumSurfaces:  binary.LittleEndian.Uint32(b[36:40]),
		NumFaces:     binary.LittleEndian.Uint32(b[40:44]),
		NumMipmaps:   binary.LittleEndian.Uint32(b[44:48]),
		MetaDataSize: binary.LittleEndian.Uint32(b[48:52]),
	}
}

// SwapHeader returns h with every multi-byte field byte-swapped.
//
// A header whose Version reads as IdentV3Reversed comes back with Version == IdentV3 (and the
// reverse), so SwapHeader(SwapHeader(h)) == h.
func SwapHeader(h Header) Header {
	return Header{
		Version:      bits.ReverseBytes32(h.Version),
		Flags:        bits.ReverseBytes32(h.Flags),
		PixelFormat:  PixelFormat(bits.ReverseBytes64(uint64(h.PixelFormat))),
		ColorSpace:   ColorSpace(bits.ReverseBytes32(uint32(h.ColorSpace))),
		ChannelType:  ChannelType(bits.ReverseBytes32(uint32(h.ChannelType))),
		Height:       bits.ReverseBytes32(h.Height),
		Width:        bits.ReverseBytes32(h.Width),
		Depth:        bits.ReverseBytes32(h.Depth),
		NumSurfaces:  bits.ReverseBytes32(h.NumSurfaces),
		NumFaces:     bits.ReverseBytes32(h.NumFaces),
		NumMipmaps:   bits.ReverseBytes32(h.NumMipmaps),
		MetaDataSize: bits.ReverseBytes32(h.MetaDataSize),
		Legacy:       h.Legacy,
	}
}

// MarshalHeader returns the little-endian V3 encoding of h. Legacy information is not stored.
func MarshalHeader(h Header) [HeaderSize]byte {
	var out [HeaderSize]byte
	binary.LittleEndian.PutUint32(out[0:4], IdentV3)
	binary.LittleEndian.PutUint32(out[4:8], h.Flags)
	binary.LittleEndian.PutUint64(out[8:16], uint64(h.PixelFormat))
	binary.LittleEndian.PutUint32(out[16:20], uint32(h.ColorSpace))
	binary.LittleEndian.PutUint32(out[20:24], uint32(h.ChannelType))
	binary.LittleEndian.PutUint32(out[24:28], h.Height)
	binary.LittleEndian.PutUint32(out[28:32], h.Width)
	binary.LittleEndian.PutUint32(out[32:36], h.Depth)
	binary.LittleEndian.PutUint32(out[36:40], h.NumSurfaces)
	binary.LittleEndian.PutUint32(out[40:44], h.NumFaces)
	binary.LittleEndian.PutUint32(out[44:48], h.NumMipmaps)
	binary.LittleEndian.PutUint32(out[48:52], h.MetaDataSize)
	return out
}

// headerV2 is the legacy PVR_Texture_Header layout.
type headerV2 struct {
	headerSize  uint32
	height      uint32
	width       uint32
	mipmapCount uint32 // levels below the top one
	flags       uint32
	dataSize    uint32
	bitCount    uint32
	redMask     uint32
	greenMask   uint32
	blueMask    uint32
	alphaMask   uint32
	pvrTag      uint32
	numSurfs    uint32
}

func readHeaderV2(b []byte) headerV2 {
	_ = b[HeaderSize-1]
	u := func(off int) uint32 { return binary.LittleEndian.Uint32(b[off : off+4]) }
	return headerV2{
		headerSize:  u(0),
		height:      u(4),
		width:       u(8),
		mipmapCount: u(12),
		flags:       u(16),
		dataSize:    u(20),
		bitCount:    u(24),
		redMask:     u(28),
		greenMask:   u(32),
		blueMask:    u(36),
		alphaMask:   u(40),
		pvrTag:      u(44),
		numSurfs:    u(48),
	}
}

func (v headerV2) swapped() headerV2 {
	s := bits.ReverseBytes32
	return headerV2{
		headerSize:  s(v.headerSize),
		height:      s(v.height),
		width:       s(v.width),
		mipmapCount: s(v.mipmapCount),
		flags:       s(v.flags),
		dataSize:    s(v.dataSize),
		bitCount:    s(v.bitCount),
		redMask:     s(v.redMask),
		greenMask:   s(v.greenMask),
		blueMask:    s(v.blueMask),
		alphaMask:   s(v.alphaMask),
		pvrTag:      s(v.pvrTag),
		numSurfs:    s(v.numSurfs),
	}
}

// convertV2 maps a legacy header onto the V3 field set.
func convertV2(v headerV2) Header {
	alpha := v.flags&legacyFlagAlpha != 0 || v.alphaMask != 0
	h := Header{
		Version:     IdentV3,
		PixelFormat: legacyPixelFormat(v.flags&legacyPixelTypeMsk, alpha),
		ColorSpace:  ColorSpaceLinear,
		ChannelType: ChannelUnsignedByteNorm,
		Height:      v.height,
		Width:       v.width,
		Depth:       1,
		NumSurfaces: 1,
		NumFaces:    1,
		NumMipmaps:  v.mipmapCount + 1,
		Legacy:      LegacyInfo{FromV2: true, Flags: v.flags},
	}

	surfaces := v.numSurfs
	if surfaces == 0 {
		surfaces = 1
	}
	switch {
	case v.flags&legacyFlagCubemap != 0:
		h.NumFaces = 6
		if surfaces >= 6 {
			h.NumSurfaces = surfaces / 6
		}
	case v.flags&legacyFlagVolume != 0:
		h.Depth = surfaces
	default:
		h.NumSurfaces = surfaces
	}
	return h
}
