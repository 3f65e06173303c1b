// Package wrapper detects and inflates the compressed envelopes PVR textures are shipped in.
//
// Supported envelopes:
//   - PVRZ: a little-endian uint32 uncompressed size followed by a zlib stream
//     (Infinity Engine Enhanced Editions).
//   - CCZ: cocos2d's 16-byte big-endian "CCZ!" header followed by a zlib stream. The encrypted
//     "CCZp" variant is rejected.
//   - zstd, lz4 and gzip frames, recognized by their magic numbers.
//
// Anything else is returned unchanged, so a plain PVR file passes straight through.
package wrapper

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"github.com/am-sokolov/go-pvrtc/pvrtc"
)

// Kind identifies an envelope.
type Kind uint8

const (
	KindRaw Kind = iota
	KindPVRZ
	KindCCZ
	KindZstd
	KindLZ4
	KindGzip
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindPVRZ:
		return "pvrz"
	case KindCCZ:
		return "ccz"
	case KindZstd:
		return "zstd"
	case KindLZ4:
		return "lz4"
	case KindGzip:
		return "gzip"
	}
	return "unknown"
}

// DefaultMaxSize bounds the inflated size accepted by Unwrap.
const DefaultMaxSize int64 = 256 << 20

// ErrTooLarge is returned when an envelope inflates beyond the size limit.
var ErrTooLarge = errors.New("wrapper: inflated payload exceeds size limit")

// ErrEncrypted is returned for encrypted CCZ payloads.
var ErrEncrypted = errors.New("wrapper: encrypted ccz payloads are not supported")

const (
	cczHeaderSize  = 16
	cczZlib        = 0
	cczMaxVersion  = 2
	pvrzHeaderSize = 4
)

var (
	magicCCZ          = []byte("CCZ!")
	magicCCZEncrypted = []byte("CCZp")
	magicZstd         = []byte{0x28, 0xB5, 0x2F, 0xFD}
	magicLZ4          = []byte{0x04, 0x22, 0x4D, 0x18}
	magicGzip         = []byte{0x1F, 0x8B, 0x08} // ID1, ID2, CM=deflate
)

// Detect reports the envelope kind of data without inflating it.
func Detect(data []byte) Kind {
	if isPVR(data) {
		return KindRaw
	}
	switch {
	case bytes.HasPrefix(data, magicCCZ), bytes.HasPrefix(data, magicCCZEncrypted):
		return KindCCZ
	case bytes.HasPrefix(data, magicZstd):
		return KindZstd
	case bytes.HasPrefix(data, magicLZ4):
		return KindLZ4
	case isZlibHeader(data[min(len(data), pvrzHeaderSize):]):
		// Ahead of gzip: a PVRZ size field can start with the gzip magic. UnwrapLimit falls back
		// to gzip when such data does not inflate as PVRZ.
		return KindPVRZ
	case bytes.HasPrefix(data, magicGzip):
		return KindGzip
	}
	return KindRaw
}

func isPVR(data []byte) bool {
	if len(data) >= 4 {
		if v := binary.LittleEndian.Uint32(data); v == pvrtc.IdentV3 || v == pvrtc.IdentV3Reversed {
			return true
		}
	}
	if len(data) >= 48 {
		if v := binary.LittleEndian.Uint32(data[44:]); v == pvrtc.IdentV2 || v == pvrtc.IdentV2Reversed {
			return true
		}
	}
	return false
}

// isZlibHeader checks the RFC 1950 CMF/FLG pair: deflate with a window <= 32K and a valid check.
func isZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	cmf, flg := b[0], b[1]
	return cmf&0x0F == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// Unwrap inflates data if it is wrapped, enforcing DefaultMaxSize.
func Unwrap(data []byte) ([]byte, Kind, error) {
	return UnwrapLimit(data, DefaultMaxSize)
}

// UnwrapLimit inflates data if it is wrapped, rejecting payloads larger than maxSize bytes.
// math.MaxInt64 disables the limit; a negative maxSize is an error.
func UnwrapLimit(data []byte, maxSize int64) ([]byte, Kind, error) {
	kind := Detect(data)
	if maxSize < 0 {
		return nil, kind, errors.Errorf("wrapper: negative size limit %d", maxSize)
	}
	var (
		out []byte
		err error
	)
	switch kind {
	case KindRaw:
		return data, kind, nil
	case KindPVRZ:
		out, err = unwrapPVRZ(data, maxSize)
		if err != nil && bytes.HasPrefix(data, magicGzip) {
			if gz, gzErr := unwrapGzip(data, maxSize); gzErr == nil {
				return gz, KindGzip, nil
			}
		}
	case KindCCZ:
		out, err = unwrapCCZ(data, maxSize)
	case KindZstd:
		out, err = unwrapZstd(data, maxSize)
	case KindLZ4:
		out, err = readLimited(lz4.NewReader(bytes.NewReader(data)), maxSize)
		err = errors.Wrap(err, "wrapper: lz4")
	case KindGzip:
		out, err = unwrapGzip(data, maxSize)
	}
	if err != nil {
		return nil, kind, err
	}
	return out, kind, nil
}

// UnwrapReader reads r to the end (at most maxSize bytes) and unwraps the result.
func UnwrapReader(r io.Reader, maxSize int64) ([]byte, Kind, error) {
	if maxSize < 0 {
		return nil, KindRaw, errors.Errorf("wrapper: negative size limit %d", maxSize)
	}
	data, err := readLimited(r, maxSize)
	if err != nil {
		return nil, KindRaw, errors.Wrap(err, "wrapper: read")
	}
	return UnwrapLimit(data, maxSize)
}

func unwrapPVRZ(data []byte, maxSize int64) ([]byte, error) {
	if len(data) < pvrzHeaderSize {
		return nil, errors.Errorf("wrapper: pvrz: short header (%d bytes)", len(data))
	}
	want := int64(binary.LittleEndian.Uint32(data))
	return inflateZlib(data[pvrzHeaderSize:], want, maxSize, "pvrz")
}

func unwrapCCZ(data []byte, maxSize int64) ([]byte, error) {
	if bytes.HasPrefix(data, magicCCZEncrypted) {
		return nil, ErrEncrypted
	}
	if len(data) < cczHeaderSize {
		return nil, errors.Errorf("wrapper: ccz: short header (%d bytes)", len(data))
	}
	compression := binary.BigEndian.Uint16(data[4:6])
	version := binary.BigEndian.Uint16(data[6:8])
	if compression != cczZlib {
		return nil, errors.Errorf("wrapper: ccz: unsupported compression type %d", compression)
	}
	if version > cczMaxVersion {
		return nil, errors.Errorf("wrapper: ccz: unsupported version %d", version)
	}
	want := int64(binary.BigEndian.Uint32(data[12:16]))
	return inflateZlib(data[cczHeaderSize:], want, maxSize, "ccz")
}

func inflateZlib(src []byte, want, maxSize int64, what string) ([]byte, error) {
	if want > maxSize {
		return nil, errors.Wrapf(ErrTooLarge, "wrapper: %s: declared size %d", what, want)
	}
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, errors.Wrapf(err, "wrapper: %s", what)
	}
	defer zr.Close()

	out, err := readLimited(zr, want)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, errors.Errorf("wrapper: %s: inflated size exceeds declared %d bytes", what, want)
		}
		return nil, errors.Wrapf(err, "wrapper: %s", what)
	}
	if int64(len(out)) != want {
		return nil, errors.Errorf("wrapper: %s: inflated %d bytes, header declares %d", what, len(out), want)
	}
	return out, nil
}

func unwrapZstd(data []byte, maxSize int64) ([]byte, error) {
	var opts []zstd.DOption
	if maxSize > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(uint64(maxSize)))
	}
	dec, err := zstd.NewReader(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "wrapper: zstd")
	}
	defer dec.Close()

	out, err := readLimited(dec, maxSize)
	return out, errors.Wrap(err, "wrapper: zstd")
}

func unwrapGzip(data []byte, maxSize int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "wrapper: gzip")
	}
	defer zr.Close()

	out, err := readLimited(zr, maxSize)
	return out, errors.Wrap(err, "wrapper: gzip")
}

// readLimited reads r to EOF, failing with ErrTooLarge past maxSize bytes. maxSize must not be
// negative; math.MaxInt64 reads without a limit.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	var buf bytes.Buffer
	if maxSize == math.MaxInt64 {
		if _, err := buf.ReadFrom(r); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	n, err := buf.ReadFrom(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if n > maxSize {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}
