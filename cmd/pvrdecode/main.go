package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/am-sokolov/go-pvrtc/pvrtc"
	"github.com/am-sokolov/go-pvrtc/pvrtc/wrapper"
)

func main() {
	var (
		inPath      string
		outPath     string
		level       int
		tiled       bool
		layout      string
		workers     int
		flip        string
		jpegQuality int
		maxSize     int64
		dumpInfo    bool
		dumpBlock   bool
		verbose     bool
	)
	flag.StringVar(&inPath, "in", "", "input .pvr file (optionally pvrz/ccz/zstd/lz4/gzip wrapped)")
	flag.StringVar(&outPath, "out", "", "output file: .png|.jpg|.bmp|.tif|.rgba")
	flag.IntVar(&level, "level", 0, "mip level to decode")
	flag.BoolVar(&tiled, "tiled", false, "wrap PVRTC block neighborhoods at the image edges")
	flag.StringVar(&layout, "layout", "default", "PVRTC block order: default (morton for files)|linear|morton")
	flag.IntVar(&workers, "workers", 0, "decode goroutines (0 = GOMAXPROCS)")
	flag.StringVar(&flip, "flip", "auto", "output orientation: auto|none|x|y|xy")
	flag.IntVar(&jpegQuality, "jpeg-quality", 95, "JPEG output quality")
	flag.Int64Var(&maxSize, "max-size", wrapper.DefaultMaxSize, "maximum inflated size of wrapped input")
	flag.BoolVar(&dumpInfo, "info", false, "print header info and exit")
	flag.BoolVar(&dumpBlock, "dump-first-block", false, "dump the first PVRTC block of the chosen level and exit")
	flag.BoolVar(&verbose, "v", false, "log progress to stderr")
	flag.Parse()

	if inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pvrdecode -in <input.pvr> [-out <output.png>] [-level N] [-tiled] [-info]")
		os.Exit(2)
	}

	logger := log.New(io.Discard, "pvrdecode: ", 0)
	if verbose {
		logger.SetOutput(os.Stderr)
	}

	layoutVal, err := parseLayout(layout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	flipVal, err := parseFlip(flip)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if maxSize < 0 {
		fmt.Fprintln(os.Stderr, "-max-size must be >= 0")
		os.Exit(2)
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	data, kind, err := wrapper.UnwrapLimit(raw, maxSize)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "unwrap %s", inPath))
		os.Exit(1)
	}
	logger.Printf("%s: %d bytes, envelope %s, %d bytes unwrapped", inPath, len(raw), kind, len(data))

	f, err := pvrtc.ParseFile(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "parse %s", inPath))
		os.Exit(1)
	}

	if dumpInfo || dumpBlock {
		printInfo(f)
		if dumpBlock {
			if err := printFirstBlock(f, level); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
		return
	}

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "missing -out")
		os.Exit(2)
	}
	enc, err := encoderFor(outPath, jpegQuality)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	opts := pvrtc.Options{Tiled: tiled, Layout: layoutVal, Workers: workers}
	pix, w, h, err := pvrtc.DecodeLevel(f, level, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "decode %s level %d", inPath, level))
		os.Exit(1)
	}
	logger.Printf("decoded level %d: %dx%d %s", level, w, h, f.Format)

	img := &image.RGBA{
		Pix:    pix,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
	if flipVal == flipAuto {
		o := f.Orientation()
		flipVal = flipFromOrientation(o)
		logger.Printf("orientation flipX=%v flipY=%v", o.FlipX, o.FlipY)
	}
	img = applyFlip(img, flipVal)

	if err := enc.write(outPath, img); err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "write %s", outPath))
		os.Exit(1)
	}
	logger.Printf("wrote %s (%s)", outPath, enc.name)
}

func printInfo(f *pvrtc.File) {
	fmt.Println(f.Header.String())
	fmt.Printf("format: %s (%d bpp)\n", f.Format, f.Format.BitsPerPixel())
	if f.Header.Legacy.FromV2 {
		fmt.Printf("legacy v2 header: flags=%#08x twiddled=%v\n", f.Header.Legacy.Flags, f.Header.Legacy.Twiddled())
	}
	for i, lvl := range f.Levels {
		w, h := f.LevelDimensions(i)
		fmt.Printf("level %d: %dx%d, %d bytes\n", i, w, h, len(lvl))
	}
	entries, err := f.MetadataEntries()
	for _, m := range entries {
		fmt.Printf("metadata %#08x/%d: %d bytes\n", m.FourCC, m.Key, len(m.Data))
	}
	if err != nil {
		fmt.Printf("metadata: %v\n", err)
	}
}

func printFirstBlock(f *pvrtc.File, level int) error {
	if !f.Format.IsPVRTC() {
		return fmt.Errorf("pvrdecode: %s has no PVRTC blocks", f.Format)
	}
	if level < 0 || level >= len(f.Levels) {
		return fmt.Errorf("pvrdecode: mip level %d out of range", level)
	}
	b, err := pvrtc.ParseBlock(f.Levels[level])
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(f.Levels[level][:pvrtc.BlockBytes]))
	fmt.Println(b.String())
	return nil
}

func parseLayout(s string) (pvrtc.BlockLayout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default", "auto", "":
		return pvrtc.LayoutDefault, nil
	case "linear", "rowmajor", "row-major":
		return pvrtc.LayoutLinear, nil
	case "morton", "twiddled", "twiddle":
		return pvrtc.LayoutMorton, nil
	default:
		return 0, fmt.Errorf("invalid -layout %q (want default|linear|morton)", s)
	}
}
