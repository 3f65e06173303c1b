package wrapper_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"github.com/am-sokolov/go-pvrtc/pvrtc"
	"github.com/am-sokolov/go-pvrtc/pvrtc/wrapper"
)

func samplePVR(t testing.TB) []byte {
	t.Helper()
	h := pvrtc.Header{
		Version:     pvrtc.IdentV3,
		PixelFormat: pvrtc.PixelFormatPVRTC4RGBA,
		Height:      8,
		Width:       8,
		Depth:       1,
		NumSurfaces: 1,
		NumFaces:    1,
		NumMipmaps:  1,
	}
	hdr := pvrtc.MarshalHeader(h)
	out := append([]byte{}, hdr[:]...)
	for i := 0; i < 32; i++ {
		out = append(out, byte(i*7))
	}
	return out
}

func zlibBytes(t testing.TB, src []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func pvrzBytes(t testing.TB, src []byte, declared uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, declared)
	return append(out, zlibBytes(t, src)...)
}

func cczBytes(t testing.TB, magic string, src []byte, declared uint32) []byte {
	out := make([]byte, 16)
	copy(out, magic)
	binary.BigEndian.PutUint16(out[4:], 0) // zlib
	binary.BigEndian.PutUint16(out[6:], 2)
	binary.BigEndian.PutUint32(out[12:], declared)
	return append(out, zlibBytes(t, src)...)
}

func zstdBytes(t testing.TB, src []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(src, nil)
}

func lz4Bytes(t testing.TB, src []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		t.Fatalf("lz4 write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("lz4 close: %v", err)
	}
	return buf.Bytes()
}

func gzipBytes(t testing.TB, src []byte) []byte {
	return gzipBytesAt(t, src, time.Time{})
}

func gzipBytesAt(t testing.TB, src []byte, modTime time.Time) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.ModTime = modTime
	if _, err := zw.Write(src); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestUnwrap_RoundTrip(t *testing.T) {
	pvr := samplePVR(t)
	cases := []struct {
		kind wrapper.Kind
		data []byte
	}{
		{wrapper.KindRaw, pvr},
		{wrapper.KindPVRZ, pvrzBytes(t, pvr, uint32(len(pvr)))},
		{wrapper.KindCCZ, cczBytes(t, "CCZ!", pvr, uint32(len(pvr)))},
		{wrapper.KindZstd, zstdBytes(t, pvr)},
		{wrapper.KindLZ4, lz4Bytes(t, pvr)},
		{wrapper.KindGzip, gzipBytes(t, pvr)},
	}
	for _, c := range cases {
		if got := wrapper.Detect(c.data); got != c.kind {
			t.Fatalf("Detect(%v): got %v", c.kind, got)
		}
		out, kind, err := wrapper.Unwrap(c.data)
		if err != nil {
			t.Fatalf("Unwrap(%v): %v", c.kind, err)
		}
		if kind != c.kind {
			t.Fatalf("Unwrap(%v): kind %v", c.kind, kind)
		}
		if !bytes.Equal(out, pvr) {
			t.Fatalf("Unwrap(%v): payload mismatch", c.kind)
		}
		if _, err := pvrtc.ParseFile(out); err != nil {
			t.Fatalf("Unwrap(%v): ParseFile: %v", c.kind, err)
		}
	}
}

func TestUnwrap_RawPassthrough(t *testing.T) {
	data := []byte("not a texture at all")
	out, kind, err := wrapper.Unwrap(data)
	if err != nil || kind != wrapper.KindRaw || !bytes.Equal(out, data) {
		t.Fatalf("Unwrap(raw): got %q %v %v", out, kind, err)
	}
	if got := wrapper.Detect(nil); got != wrapper.KindRaw {
		t.Fatalf("Detect(nil): got %v", got)
	}
}

func TestUnwrap_DeclaredSizeMismatch(t *testing.T) {
	pvr := samplePVR(t)
	bad := [][]byte{
		pvrzBytes(t, pvr, uint32(len(pvr)+1)),
		pvrzBytes(t, pvr, uint32(len(pvr)-1)),
		cczBytes(t, "CCZ!", pvr, uint32(len(pvr)+1)),
		cczBytes(t, "CCZ!", pvr, uint32(len(pvr)-1)),
	}
	for i, data := range bad {
		if _, _, err := wrapper.Unwrap(data); err == nil {
			t.Fatalf("case %d: got nil error for size mismatch", i)
		}
	}
}

func TestUnwrap_CCZ(t *testing.T) {
	pvr := samplePVR(t)
	if _, kind, err := wrapper.Unwrap(cczBytes(t, "CCZp", pvr, uint32(len(pvr)))); !errors.Is(err, wrapper.ErrEncrypted) || kind != wrapper.KindCCZ {
		t.Fatalf("CCZp: got %v (%v) want ErrEncrypted", err, kind)
	}

	badVersion := cczBytes(t, "CCZ!", pvr, uint32(len(pvr)))
	binary.BigEndian.PutUint16(badVersion[6:], 9)
	if _, _, err := wrapper.Unwrap(badVersion); err == nil {
		t.Fatalf("CCZ version 9: got nil error")
	}

	badCompression := cczBytes(t, "CCZ!", pvr, uint32(len(pvr)))
	binary.BigEndian.PutUint16(badCompression[4:], 1)
	if _, _, err := wrapper.Unwrap(badCompression); err == nil {
		t.Fatalf("CCZ compression 1: got nil error")
	}

	if _, _, err := wrapper.Unwrap([]byte("CCZ!\x00\x00")); err == nil {
		t.Fatalf("short CCZ header: got nil error")
	}
}

func TestUnwrap_SizeLimit(t *testing.T) {
	pvr := samplePVR(t)
	limit := int64(len(pvr) - 1)

	cases := map[string][]byte{
		"pvrz": pvrzBytes(t, pvr, uint32(len(pvr))),
		"ccz":  cczBytes(t, "CCZ!", pvr, uint32(len(pvr))),
		"lz4":  lz4Bytes(t, pvr),
		"gzip": gzipBytes(t, pvr),
	}
	for name, data := range cases {
		if _, _, err := wrapper.UnwrapLimit(data, limit); !errors.Is(err, wrapper.ErrTooLarge) {
			t.Fatalf("%s: got %v want ErrTooLarge", name, err)
		}
		if _, _, err := wrapper.UnwrapLimit(data, int64(len(pvr))); err != nil {
			t.Fatalf("%s at exact limit: %v", name, err)
		}
	}

	// Raw data is never inflated, so the limit does not apply.
	if _, _, err := wrapper.UnwrapLimit(pvr, 1); err != nil {
		t.Fatalf("raw: %v", err)
	}
}

func TestUnwrapReader(t *testing.T) {
	pvr := samplePVR(t)
	out, kind, err := wrapper.UnwrapReader(bytes.NewReader(gzipBytes(t, pvr)), wrapper.DefaultMaxSize)
	if err != nil || kind != wrapper.KindGzip || !bytes.Equal(out, pvr) {
		t.Fatalf("UnwrapReader: kind %v err %v", kind, err)
	}

	if _, _, err := wrapper.UnwrapReader(bytes.NewReader(pvr), 8); !errors.Is(err, wrapper.ErrTooLarge) {
		t.Fatalf("UnwrapReader over limit: got %v want ErrTooLarge", err)
	}
}

func TestKindString(t *testing.T) {
	want := map[wrapper.Kind]string{
		wrapper.KindRaw:  "raw",
		wrapper.KindPVRZ: "pvrz",
		wrapper.KindCCZ:  "ccz",
		wrapper.KindZstd: "zstd",
		wrapper.KindLZ4:  "lz4",
		wrapper.KindGzip: "gzip",
		wrapper.Kind(99): "unknown",
	}
	for k, s := range want {
		if got := k.String(); got != s {
			t.Fatalf("Kind(%d).String(): got %q want %q", uint8(k), got, s)
		}
	}
}

func TestUnwrapLimit_NoLimit(t *testing.T) {
	pvr := samplePVR(t)
	cases := map[string][]byte{
		"pvrz": pvrzBytes(t, pvr, uint32(len(pvr))),
		"ccz":  cczBytes(t, "CCZ!", pvr, uint32(len(pvr))),
		"zstd": zstdBytes(t, pvr),
		"lz4":  lz4Bytes(t, pvr),
		"gzip": gzipBytes(t, pvr),
	}
	for name, data := range cases {
		out, _, err := wrapper.UnwrapLimit(data, math.MaxInt64)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !bytes.Equal(out, pvr) {
			t.Fatalf("%s: got %d bytes want %d", name, len(out), len(pvr))
		}
	}

	out, kind, err := wrapper.UnwrapReader(bytes.NewReader(gzipBytes(t, pvr)), math.MaxInt64)
	if err != nil || kind != wrapper.KindGzip || !bytes.Equal(out, pvr) {
		t.Fatalf("UnwrapReader: got %d bytes, kind %v, err %v", len(out), kind, err)
	}
}

func TestUnwrapLimit_NegativeLimit(t *testing.T) {
	pvr := samplePVR(t)
	for name, data := range map[string][]byte{"raw": pvr, "gzip": gzipBytes(t, pvr)} {
		if out, _, err := wrapper.UnwrapLimit(data, -1); err == nil {
			t.Fatalf("%s: got %d bytes and nil error for a negative limit", name, len(out))
		}
	}
	if _, _, err := wrapper.UnwrapReader(bytes.NewReader(pvr), -1); err == nil {
		t.Fatalf("UnwrapReader: got nil error for a negative limit")
	}
}

func TestDetect_GzipMagicInPVRZSize(t *testing.T) {
	// A declared size of 0x00088B1F is stored as 1F 8B 08 00, the gzip magic.
	const size = 0x00088B1F
	pvr := samplePVR(t)
	payload := make([]byte, size)
	copy(payload, pvr)

	data := pvrzBytes(t, payload, size)
	if got := wrapper.Detect(data); got != wrapper.KindPVRZ {
		t.Fatalf("Detect: got %v want pvrz", got)
	}
	out, kind, err := wrapper.Unwrap(data)
	if err != nil || kind != wrapper.KindPVRZ || !bytes.Equal(out, payload) {
		t.Fatalf("Unwrap: got %d bytes, kind %v, err %v", len(out), kind, err)
	}
}

func TestDetect_GzipNeedsDeflate(t *testing.T) {
	data := []byte{0x1F, 0x8B, 0x07, 0, 0, 0, 0, 0, 0, 0xFF}
	if got := wrapper.Detect(data); got != wrapper.KindRaw {
		t.Fatalf("Detect(CM=7): got %v want raw", got)
	}
}

func TestUnwrap_GzipWithZlibLookingTimestamp(t *testing.T) {
	// MTIME 0x00009C78 puts 78 9C, a valid zlib header, where a PVRZ stream would start.
	pvr := samplePVR(t)
	data := gzipBytesAt(t, pvr, time.Unix(0x9C78, 0))
	if data[4] != 0x78 || data[5] != 0x9C {
		t.Fatalf("gzip header bytes 4-5: got % x", data[4:6])
	}
	out, kind, err := wrapper.Unwrap(data)
	if err != nil || kind != wrapper.KindGzip || !bytes.Equal(out, pvr) {
		t.Fatalf("Unwrap: got %d bytes, kind %v, err %v", len(out), kind, err)
	}
}
