package pvrtc

import (
	"errors"
	"fmt"
)

// ErrorCode classifies decoder failures.
type ErrorCode uint32

const (
	// Success means no error.
	Success ErrorCode = 0

	// ErrTruncated means the input is shorter than the header, metadata or pixel data it declares.
	ErrTruncated ErrorCode = 1

	// ErrUnrecognizedFormat means neither the V2 nor the V3 PVR magic matched.
	ErrUnrecognizedFormat ErrorCode = 2

	// ErrUnsupportedDepth means the texture is a volume (depth > 1).
	ErrUnsupportedDepth ErrorCode = 3

	// ErrUnsupportedPixelFormat means the (pixel format, channel type) pair is not decodable.
	ErrUnsupportedPixelFormat ErrorCode = 4

	// ErrInvalidDimensions means a PVRTC width or height is not a power of two.
	ErrInvalidDimensions ErrorCode = 5

	// ErrCorruptBlock means a block's modulation bits were not consumed exactly.
	ErrCorruptBlock ErrorCode = 6

	// ErrUnsupportedLayout means the texture has more than one face or surface.
	ErrUnsupportedLayout ErrorCode = 7

	// ErrBadParam means an argument was out of range (mip level, destination buffer, coordinates).
	ErrBadParam ErrorCode = 8
)

// ErrorString returns the symbolic name of code.
//
// For unknown codes, it returns "".
func ErrorString(code ErrorCode) string {
	switch code {
	case Success:
		return "PVRTC_SUCCESS"
	case ErrTruncated:
		return "PVRTC_ERR_TRUNCATED"
	case ErrUnrecognizedFormat:
		return "PVRTC_ERR_UNRECOGNIZED_FORMAT"
	case ErrUnsupportedDepth:
		return "PVRTC_ERR_UNSUPPORTED_DEPTH"
	case ErrUnsupportedPixelFormat:
		return "PVRTC_ERR_UNSUPPORTED_PIXEL_FORMAT"
	case ErrInvalidDimensions:
		return "PVRTC_ERR_INVALID_DIMENSIONS"
	case ErrCorruptBlock:
		return "PVRTC_ERR_CORRUPT_BLOCK"
	case ErrUnsupportedLayout:
		return "PVRTC_ERR_UNSUPPORTED_LAYOUT"
	case ErrBadParam:
		return "PVRTC_ERR_BAD_PARAM"
	default:
		return ""
	}
}

// Error is a typed error that carries an ErrorCode.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	if s := ErrorString(e.Code); s != "" {
		return "pvrtc: " + s
	}
	return "pvrtc: error"
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, &Error{Code: ErrTruncated}) works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// ErrorCodeOf returns the code carried by err, or Success for nil.
//
// For non-*Error errors it returns ErrBadParam.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrBadParam
}

func newError(code ErrorCode, msg string) error {
	return &Error{Code: code, Msg: msg}
}

func errTruncated(what string, want, got int) error {
	return newError(ErrTruncated, fmt.Sprintf("pvrtc: %s: unexpected EOF: want %d bytes, got %d", what, want, got))
}
