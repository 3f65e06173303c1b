package pvrtc

import (
	"encoding/binary"
	"fmt"
)

// Metadata is one entry of the V3 metadata block.
type Metadata struct {
	FourCC uint32
	Key    uint32
	Data   []byte
}

// metaFourCCPVR is the FourCC of metadata entries defined by the container itself.
const metaFourCCPVR = IdentV3

const metaKeyOrientation = 3

// Orientation describes which axes of the stored image run opposite to the decoded raster.
type Orientation struct {
	FlipX bool
	FlipY bool
}

// ParseMetadata splits a metadata block into entries.
//
// Entries decoded before a malformed one are returned together with the error. Data slices
// alias b.
func ParseMetadata(b []byte, order binary.ByteOrder) ([]Metadata, error) {
	var out []Metadata
	for off := 0; off < len(b); {
		if len(b)-off < 12 {
			return out, errTruncated("pvr metadata entry", off+12, len(b))
		}
		m := Metadata{
			FourCC: order.Uint32(b[off : off+4]),
			Key:    order.Uint32(b[off+4 : off+8]),
		}
		size := uint64(order.Uint32(b[off+8 : off+12]))
		off += 12
		if size > uint64(len(b)-off) {
			return out, newError(ErrTruncated,
				fmt.Sprintf("pvrtc: metadata entry %#08x/%d: want %d bytes, have %d", m.FourCC, m.Key, size, len(b)-off))
		}
		m.Data = b[off : off+int(size)]
		off += int(size)
		out = append(out, m)
	}
	return out, nil
}

// MetadataEntries decodes f.Metadata in the byte order of the file's header.
func (f *File) MetadataEntries() ([]Metadata, error) {
	return ParseMetadata(f.Metadata, f.order)
}

// Orientation returns the orientation declared by the file's metadata (V3) or flags (V2).
// Malformed metadata is ignored.
func (f *File) Orientation() Orientation {
	if f.Header.Legacy.FromV2 {
		return Orientation{FlipY: f.Header.Legacy.FlipY()}
	}
	entries, _ := f.MetadataEntries()
	var o Orientation
	for _, m := range entries {
		if m.FourCC != metaFourCCPVR || m.Key != metaKeyOrientation || len(m.Data) < 2 {
			continue
		}
		o.FlipX = m.Data[0] != 0
		o.FlipY = m.Data[1] != 0
	}
	return o
}
