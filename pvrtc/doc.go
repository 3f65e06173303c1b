// Package pvrtc decodes PowerVR texture containers (.pvr, V2 and V3 headers) and PVRTC 2bpp and
// 4bpp block data into RGBA8 pixels.
//
// ParseFile validates a container and slices out its mip levels; DecodeLevel and DecodeRGBA8 turn
// a level into row-major RGBA8. Decompress works on bare PVRTC block data. Uncompressed 8-bit
// formats (RGBA8888, RGB888, LA88, L8, A8) are expanded to RGBA8 as well.
//
// Compressed envelopes (pvrz, ccz, zstd, lz4, gzip) are handled by the wrapper subpackage.
//
// Channel range assertions in the block decoder are compiled in with:
//
//	-tags pvrtc_debug
package pvrtc
