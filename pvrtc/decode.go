package pvrtc

import "fmt"

// DecodeRGBA8 decodes the top mip level of a PVR container into an RGBA8 pixel buffer.
func DecodeRGBA8(data []byte) (pix []byte, width, height int, err error) {
	return DecodeRGBA8WithOptions(data, Options{})
}

// DecodeRGBA8WithOptions is DecodeRGBA8 with explicit PVRTC options.
func DecodeRGBA8WithOptions(data []byte, opts Options) (pix []byte, width, height int, err error) {
	f, err := ParseFile(data)
	if err != nil {
		return nil, 0, 0, err
	}
	return DecodeLevel(f, 0, opts)
}

// DecodeLevel decodes one mip level of f into an RGBA8 pixel buffer laid out row-major.
//
// PVRTC levels go through the block decoder. Container data is stored in Morton block order, so
// LayoutDefault reads it that way for both V2 and V3 files; opts.Tiled only selects the edge
// policy. Uncompressed levels are expanded to RGBA8:
// missing color channels read as 0 (A8) or copy luminance (L8, LA8), missing alpha reads as 255.
func DecodeLevel(f *File, level int, opts Options) (pix []byte, width, height int, err error) {
	if f == nil {
		return nil, 0, 0, newError(ErrBadParam, "pvrtc: nil file")
	}
	if level < 0 || level >= len(f.Levels) {
		return nil, 0, 0, newError(ErrBadParam, fmt.Sprintf("pvrtc: mip level %d out of range [0,%d)", level, len(f.Levels)))
	}
	width, height = f.LevelDimensions(level)
	if f.Header.Width == 0 || f.Header.Height == 0 {
		return nil, 0, 0, newError(ErrInvalidDimensions, "pvrtc: zero image dimension")
	}
	data := f.Levels[level]

	if f.Format.IsPVRTC() {
		opts = f.ResolveOptions(opts)
		pix, err = DecompressWithOptions(data, f.Format.Is2bpp(), uint32(width), uint32(height), opts)
		if err != nil {
			return nil, 0, 0, err
		}
		return pix, width, height, nil
	}

	pix, err = expandRGBA8(f.Format, data, width, height)
	if err != nil {
		return nil, 0, 0, err
	}
	return pix, width, height, nil
}

// ResolveOptions returns opts with LayoutDefault replaced by the block order of PVRTC data
// stored in a container, which is always Morton.
func (f *File) ResolveOptions(opts Options) Options {
	if opts.Layout == LayoutDefault {
		opts.Layout = LayoutMorton
	}
	return opts
}

func expandRGBA8(f Format, src []byte, width, height int) ([]byte, error) {
	bpp := f.BitsPerPixel() / 8
	if bpp == 0 || f.IsPVRTC() {
		return nil, newError(ErrUnsupportedPixelFormat, fmt.Sprintf("pvrtc: cannot expand %s", f))
	}
	n := width * height
	if len(src) < n*bpp {
		return nil, errTruncated("pvr "+f.String()+" level", n*bpp, len(src))
	}

	dst := make([]byte, n*4)
	switch f {
	case FormatRGBA8:
		copy(dst, src[:n*4])
	case FormatRGB8:
		for i := 0; i < n; i++ {
			dst[i*4+0] = src[i*3+0]
			dst[i*4+1] = src[i*3+1]
			dst[i*4+2] = src[i*3+2]
			dst[i*4+3] = 0xFF
		}
	case FormatLA8:
		for i := 0; i < n; i++ {
			l := src[i*2]
			dst[i*4+0], dst[i*4+1], dst[i*4+2] = l, l, l
			dst[i*4+3] = src[i*2+1]
		}
	case FormatL8:
		for i := 0; i < n; i++ {
			l := src[i]
			dst[i*4+0], dst[i*4+1], dst[i*4+2] = l, l, l
			dst[i*4+3] = 0xFF
		}
	case FormatA8:
		for i := 0; i < n; i++ {
			dst[i*4+3] = src[i]
		}
	default:
		return nil, newError(ErrUnsupportedPixelFormat, fmt.Sprintf("pvrtc: cannot expand %s", f))
	}
	return dst, nil
}
