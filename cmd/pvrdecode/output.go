package main

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/tiff"

	"github.com/am-sokolov/go-pvrtc/pvrtc"
)

type flipMode uint8

const (
	flipAuto flipMode = iota
	flipNone
	flipX
	flipY
	flipXY
)

func parseFlip(s string) (flipMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return flipAuto, nil
	case "none", "off":
		return flipNone, nil
	case "x", "h":
		return flipX, nil
	case "y", "v":
		return flipY, nil
	case "xy", "yx", "hv", "vh":
		return flipXY, nil
	default:
		return 0, fmt.Errorf("invalid -flip %q (want auto|none|x|y|xy)", s)
	}
}

func flipFromOrientation(o pvrtc.Orientation) flipMode {
	switch {
	case o.FlipX && o.FlipY:
		return flipXY
	case o.FlipX:
		return flipX
	case o.FlipY:
		return flipY
	}
	return flipNone
}

func applyFlip(img *image.RGBA, mode flipMode) *image.RGBA {
	switch mode {
	case flipX:
		return transform.FlipH(img)
	case flipY:
		return transform.FlipV(img)
	case flipXY:
		return transform.FlipV(transform.FlipH(img))
	}
	return img
}

// outputEncoder writes an image to a path.
type outputEncoder struct {
	name string
	enc  imgio.Encoder // nil for raw RGBA output
}

func (e outputEncoder) write(path string, img *image.RGBA) error {
	if e.enc == nil {
		return os.WriteFile(path, rawRGBA(img), 0o644)
	}
	return imgio.Save(path, img, e.enc)
}

func encoderFor(path string, jpegQuality int) (outputEncoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return outputEncoder{name: "png", enc: imgio.PNGEncoder()}, nil
	case ".jpg", ".jpeg":
		if jpegQuality < 1 || jpegQuality > 100 {
			return outputEncoder{}, fmt.Errorf("invalid -jpeg-quality %d (want 1..100)", jpegQuality)
		}
		return outputEncoder{name: "jpeg", enc: imgio.JPEGEncoder(jpegQuality)}, nil
	case ".bmp":
		return outputEncoder{name: "bmp", enc: imgio.BMPEncoder()}, nil
	case ".tif", ".tiff":
		return outputEncoder{name: "tiff", enc: tiffEncoder}, nil
	case ".rgba", ".raw":
		return outputEncoder{name: "rgba"}, nil
	default:
		return outputEncoder{}, fmt.Errorf("unsupported output extension %q (want .png|.jpg|.bmp|.tif|.rgba)", filepath.Ext(path))
	}
}

func tiffEncoder(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// rawRGBA returns the tightly packed pixels of img.
func rawRGBA(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == w*4 {
		return img.Pix[:w*h*4]
	}
	out := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		out = append(out, row...)
	}
	return out
}
