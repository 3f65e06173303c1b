package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/am-sokolov/go-pvrtc/pvrtc"
	"github.com/am-sokolov/go-pvrtc/pvrtc/wrapper"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "decode":
		decodeCmd(os.Args[2:])
	case "synthetic":
		syntheticCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  pvrbench decode -in <file.pvr> [-level N] [-tiled] [-layout default|linear|morton] [-workers N] [-iters N] [-checksum fnv|none]")
	fmt.Fprintln(os.Stderr, "  pvrbench synthetic -w W -h H [-mode 2bpp|4bpp] [-seed S] [-tiled] [-workers N] [-iters N] [-checksum fnv|none]")
}

type profileFlags struct {
	cpuprofile  string
	memprofile  string
	memprofRate int
}

func (p *profileFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&p.cpuprofile, "cpuprofile", "", "optional CPU profile output path")
	fs.StringVar(&p.memprofile, "memprofile", "", "optional memory profile output path")
	fs.IntVar(&p.memprofRate, "memprofilerate", 0, "optional runtime.MemProfileRate override (0 = default)")
}

// start begins CPU profiling if requested and returns the function that ends it.
func (p *profileFlags) start() func() {
	if p.memprofRate > 0 {
		runtime.MemProfileRate = p.memprofRate
	}
	if p.cpuprofile == "" {
		return func() {}
	}
	f, err := os.Create(p.cpuprofile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}
}

func (p *profileFlags) writeHeap() {
	if p.memprofile == "" {
		return
	}
	f, err := os.Create(p.memprofile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := pprof.WriteHeapProfile(f); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func decodeCmd(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	var (
		inPath      string
		level       int
		tiled       bool
		layout      string
		workers     int
		iters       int
		checksumOpt string
		prof        profileFlags
	)
	fs.StringVar(&inPath, "in", "", "input .pvr file (optionally wrapped)")
	fs.IntVar(&level, "level", 0, "mip level")
	fs.BoolVar(&tiled, "tiled", false, "wrap block neighborhoods at the image edges")
	fs.StringVar(&layout, "layout", "default", "block order: default (morton for files)|linear|morton")
	fs.IntVar(&workers, "workers", 0, "decode goroutines (0 = GOMAXPROCS)")
	fs.IntVar(&iters, "iters", 200, "iterations")
	fs.StringVar(&checksumOpt, "checksum", "fnv", "checksum: fnv|none (for benchmarking)")
	prof.register(fs)
	_ = fs.Parse(args)

	if inPath == "" {
		fmt.Fprintln(os.Stderr, "missing -in")
		os.Exit(2)
	}
	if iters <= 0 {
		fmt.Fprintln(os.Stderr, "iters must be > 0")
		os.Exit(2)
	}
	layoutVal, err := parseLayout(layout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	data, _, err := wrapper.Unwrap(raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	f, err := pvrtc.ParseFile(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if !f.Format.IsPVRTC() {
		fmt.Fprintf(os.Stderr, "%s is not a PVRTC format\n", f.Format)
		os.Exit(1)
	}
	if level < 0 || level >= len(f.Levels) {
		fmt.Fprintf(os.Stderr, "mip level %d out of range [0,%d)\n", level, len(f.Levels))
		os.Exit(2)
	}
	w, h := f.LevelDimensions(level)
	opts := f.ResolveOptions(pvrtc.Options{Tiled: tiled, Layout: layoutVal, Workers: workers})

	stop := prof.start()
	defer stop()

	dst := make([]byte, w*h*4)
	doChecksum := strings.ToLower(strings.TrimSpace(checksumOpt)) != "none"
	var checksum uint64
	start := time.Now()
	for i := 0; i < iters; i++ {
		if err := pvrtc.DecompressInto(dst, f.Levels[level], f.Format.Is2bpp(), uint32(w), uint32(h), opts); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if doChecksum {
			checksum = fnv1a64(checksum, dst)
		}
	}
	dur := time.Since(start)
	prof.writeHeap()

	report("decode", f.Format.String(), w, h, iters, dur, checksum, doChecksum)
}

func syntheticCmd(args []string) {
	fs := flag.NewFlagSet("synthetic", flag.ExitOnError)
	var (
		width       int
		height      int
		mode        string
		seed        int64
		tiled       bool
		workers     int
		iters       int
		checksumOpt string
		prof        profileFlags
	)
	fs.IntVar(&width, "w", 512, "width (power of two)")
	fs.IntVar(&height, "h", 512, "height (power of two)")
	fs.StringVar(&mode, "mode", "4bpp", "block mode: 2bpp|4bpp")
	fs.Int64Var(&seed, "seed", 1, "block generator seed")
	fs.BoolVar(&tiled, "tiled", false, "tiled decode (edge wrap + Morton order)")
	fs.IntVar(&workers, "workers", 0, "decode goroutines (0 = GOMAXPROCS)")
	fs.IntVar(&iters, "iters", 50, "iterations")
	fs.StringVar(&checksumOpt, "checksum", "fnv", "checksum: fnv|none (for benchmarking)")
	prof.register(fs)
	_ = fs.Parse(args)

	if width <= 0 || height <= 0 {
		fmt.Fprintln(os.Stderr, "invalid dimensions")
		os.Exit(2)
	}
	if iters <= 0 {
		fmt.Fprintln(os.Stderr, "iters must be > 0")
		os.Exit(2)
	}
	var is2bpp bool
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "2bpp", "2":
		is2bpp = true
	case "4bpp", "4":
	default:
		fmt.Fprintf(os.Stderr, "invalid -mode %q (want 2bpp|4bpp)\n", mode)
		os.Exit(2)
	}

	bx, by := pvrtc.BlockGrid(is2bpp, width, height)
	blocks := make([]byte, bx*by*pvrtc.BlockBytes)
	rand.New(rand.NewSource(seed)).Read(blocks)

	stop := prof.start()
	defer stop()

	dst := make([]byte, width*height*4)
	opts := pvrtc.Options{Tiled: tiled, Workers: workers}
	doChecksum := strings.ToLower(strings.TrimSpace(checksumOpt)) != "none"
	var checksum uint64
	start := time.Now()
	for i := 0; i < iters; i++ {
		if err := pvrtc.DecompressInto(dst, blocks, is2bpp, uint32(width), uint32(height), opts); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if doChecksum {
			checksum = fnv1a64(checksum, dst)
		}
	}
	dur := time.Since(start)
	prof.writeHeap()

	report("synthetic", mode, width, height, iters, dur, checksum, doChecksum)
}

func report(cmd, format string, w, h, iters int, dur time.Duration, checksum uint64, doChecksum bool) {
	mpixPerS := float64(w*h) * float64(iters) / dur.Seconds() / 1e6
	checksumStr := fmtChecksum(checksum)
	if !doChecksum {
		checksumStr = "none"
	}
	fmt.Printf("RESULT mode=%s format=%q size=%dx%d iters=%d seconds=%.6f mpix/s=%.3f checksum=%s\n",
		cmd,
		format,
		w, h,
		iters,
		dur.Seconds(),
		mpixPerS,
		checksumStr,
	)
}

func parseLayout(s string) (pvrtc.BlockLayout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default", "auto", "":
		return pvrtc.LayoutDefault, nil
	case "linear":
		return pvrtc.LayoutLinear, nil
	case "morton", "twiddled":
		return pvrtc.LayoutMorton, nil
	default:
		return 0, fmt.Errorf("invalid -layout %q (want default|linear|morton)", s)
	}
}

func fnv1a64(seed uint64, data []byte) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := seed
	if h == 0 {
		h = offset64
	}
	for _, b := range data {
		h ^= uint64(b)
		h *= prime64
	}
	return h
}

func fmtChecksum(v uint64) string {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> uint(i*8))
	}
	return hex.EncodeToString(b[:])
}
