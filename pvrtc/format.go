package pvrtc

import "fmt"

// PixelFormat is the 64-bit V3 pixel format field.
//
// When the high 32 bits are zero, the low 32 bits enumerate a compressed format. Otherwise the
// low 4 bytes hold channel names ('r', 'g', 'b', 'a', 'l', ...) and the high 4 bytes hold the
// matching per-channel bit counts.
type PixelFormat uint64

const (
	PixelFormatPVRTC2RGB  PixelFormat = 0
	PixelFormatPVRTC2RGBA PixelFormat = 1
	PixelFormatPVRTC4RGB  PixelFormat = 2
	PixelFormatPVRTC4RGBA PixelFormat = 3

	PixelFormatRGBA8888 PixelFormat = 0x0808080861626772
	PixelFormatRGB888   PixelFormat = 0x0008080800626772
	PixelFormatLA88     PixelFormat = 0x000008080000616C
	PixelFormatL8       PixelFormat = 0x000000080000006C
	PixelFormatA8       PixelFormat = 0x0000000800000061

	// Produced by V2 conversion only; recognized but not decodable.
	PixelFormatRGBA4444 PixelFormat = 0x0404040461626772
	PixelFormatRGBA5551 PixelFormat = 0x0105050561626772
	PixelFormatRGB565   PixelFormat = 0x0005060500626772
	PixelFormatBGRA8888 PixelFormat = 0x0808080861726762

	// pixelFormatInvalid marks a legacy pixel type with no V3 equivalent.
	pixelFormatInvalid PixelFormat = ^PixelFormat(0)
)

// IsCompressed reports whether pf is an enumerated (non channel-described) format.
func (pf PixelFormat) IsCompressed() bool { return pf>>32 == 0 }

func (pf PixelFormat) String() string {
	switch pf {
	case PixelFormatPVRTC2RGB:
		return "PVRTC 2bpp RGB"
	case PixelFormatPVRTC2RGBA:
		return "PVRTC 2bpp RGBA"
	case PixelFormatPVRTC4RGB:
		return "PVRTC 4bpp RGB"
	case PixelFormatPVRTC4RGBA:
		return "PVRTC 4bpp RGBA"
	case pixelFormatInvalid:
		return "invalid"
	}
	if pf.IsCompressed() {
		return fmt.Sprintf("compressed(%d)", uint32(pf))
	}
	var name []byte
	var bits string
	for i := 0; i < 4; i++ {
		c := byte(pf >> (8 * i))
		if c == 0 {
			continue
		}
		name = append(name, c)
		bits += fmt.Sprint(uint8(pf >> (32 + 8*i)))
	}
	return string(name) + bits
}

// ChannelType is the V3 channel type field.
type ChannelType uint32

const (
	ChannelUnsignedByteNorm ChannelType = iota
	ChannelSignedByteNorm
	ChannelUnsignedByte
	ChannelSignedByte
	ChannelUnsignedShortNorm
	ChannelSignedShortNorm
	ChannelUnsignedShort
	ChannelSignedShort
	ChannelUnsignedIntegerNorm
	ChannelSignedIntegerNorm
	ChannelUnsignedInteger
	ChannelSignedInteger
	ChannelFloat
)

// ColorSpace is the V3 color space field.
type ColorSpace uint32

const (
	ColorSpaceLinear ColorSpace = 0
	ColorSpaceSRGB   ColorSpace = 1
)

// Format is the decoder's internal image format.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatPVRTC2
	FormatPVRTC2Alpha
	FormatPVRTC4
	FormatPVRTC4Alpha
	FormatRGBA8
	FormatRGB8
	FormatLA8
	FormatL8
	FormatA8
)

var formatNames = [...]string{
	FormatUnknown:     "unknown",
	FormatPVRTC2:      "PVRTC2",
	FormatPVRTC2Alpha: "PVRTC2_ALPHA",
	FormatPVRTC4:      "PVRTC4",
	FormatPVRTC4Alpha: "PVRTC4_ALPHA",
	FormatRGBA8:       "RGBA8",
	FormatRGB8:        "RGB8",
	FormatLA8:         "LA8",
	FormatL8:          "L8",
	FormatA8:          "A8",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// IsPVRTC reports whether f is one of the PVRTC block formats.
func (f Format) IsPVRTC() bool {
	return f >= FormatPVRTC2 && f <= FormatPVRTC4Alpha
}

// Is2bpp reports whether f is a PVRTC 2bpp format.
func (f Format) Is2bpp() bool {
	return f == FormatPVRTC2 || f == FormatPVRTC2Alpha
}

// HasAlpha reports whether f carries an alpha channel.
func (f Format) HasAlpha() bool {
	switch f {
	case FormatPVRTC2Alpha, FormatPVRTC4Alpha, FormatRGBA8, FormatLA8, FormatA8:
		return true
	}
	return false
}

// BitsPerPixel returns the storage cost of one pixel, or 0 for FormatUnknown.
func (f Format) BitsPerPixel() int {
	switch f {
	case FormatPVRTC2, FormatPVRTC2Alpha:
		return 2
	case FormatPVRTC4, FormatPVRTC4Alpha:
		return 4
	case FormatRGBA8:
		return 32
	case FormatRGB8:
		return 24
	case FormatLA8:
		return 16
	case FormatL8, FormatA8:
		return 8
	}
	return 0
}

// MinDimensions returns the smallest width and height a mip level of f occupies in storage.
func (f Format) MinDimensions() (width, height int) {
	switch f {
	case FormatPVRTC2, FormatPVRTC2Alpha:
		return 16, 8
	case FormatPVRTC4, FormatPVRTC4Alpha:
		return 8, 8
	}
	return 1, 1
}

// MapFormat maps a V3 (pixel format, channel type) pair to the internal format.
func MapFormat(pf PixelFormat, ct ChannelType) (Format, error) {
	if ct != ChannelUnsignedByteNorm && ct != ChannelUnsignedByte {
		return FormatUnknown, newError(ErrUnsupportedPixelFormat,
			fmt.Sprintf("pvrtc: unsupported channel type %d for pixel format %s", uint32(ct), pf))
	}
	switch pf {
	case PixelFormatPVRTC2RGB:
		return FormatPVRTC2, nil
	case PixelFormatPVRTC2RGBA:
		return FormatPVRTC2Alpha, nil
	case PixelFormatPVRTC4RGB:
		return FormatPVRTC4, nil
	case PixelFormatPVRTC4RGBA:
		return FormatPVRTC4Alpha, nil
	case PixelFormatRGBA8888:
		return FormatRGBA8, nil
	case PixelFormatRGB888:
		return FormatRGB8, nil
	case PixelFormatLA88:
		return FormatLA8, nil
	case PixelFormatL8:
		return FormatL8, nil
	case PixelFormatA8:
		return FormatA8, nil
	}
	return FormatUnknown, newError(ErrUnsupportedPixelFormat, fmt.Sprintf("pvrtc: unsupported pixel format %s", pf))
}

// Legacy (V2) pixel types, stored in the low byte of the V2 flags.
const (
	legacyMGLPVRTC2   = 0x0C
	legacyMGLPVRTC4   = 0x0D
	legacyOGLRGBA4444 = 0x10
	legacyOGLRGBA5551 = 0x11
	legacyOGLRGBA8888 = 0x12
	legacyOGLRGB565   = 0x13
	legacyOGLRGB888   = 0x15
	legacyOGLI8       = 0x16
	legacyOGLAI88     = 0x17
	legacyOGLPVRTC2   = 0x18
	legacyOGLPVRTC4   = 0x19
	legacyOGLBGRA8888 = 0x1A
	legacyOGLA8       = 0x1B
)

func legacyPixelFormat(pixelType uint32, alpha bool) PixelFormat {
	switch pixelType {
	case legacyOGLPVRTC2, legacyMGLPVRTC2:
		if alpha {
			return PixelFormatPVRTC2RGBA
		}
		return PixelFormatPVRTC2RGB
	case legacyOGLPVRTC4, legacyMGLPVRTC4:
		if alpha {
			return PixelFormatPVRTC4RGBA
		}
		return PixelFormatPVRTC4RGB
	case legacyOGLRGBA8888:
		return PixelFormatRGBA8888
	case legacyOGLRGB888:
		return PixelFormatRGB888
	case legacyOGLAI88:
		return PixelFormatLA88
	case legacyOGLI8:
		return PixelFormatL8
	case legacyOGLA8:
		return PixelFormatA8
	case legacyOGLRGBA4444:
		return PixelFormatRGBA4444
	case legacyOGLRGBA5551:
		return PixelFormatRGBA5551
	case legacyOGLRGB565:
		return PixelFormatRGB565
	case legacyOGLBGRA8888:
		return PixelFormatBGRA8888
	}
	return pixelFormatInvalid
}
