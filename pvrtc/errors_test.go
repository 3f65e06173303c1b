package pvrtc_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/am-sokolov/go-pvrtc/pvrtc"
)

func TestErrorString_Names(t *testing.T) {
	cases := []struct {
		code pvrtc.ErrorCode
		want string
	}{
		{pvrtc.Success, "PVRTC_SUCCESS"},
		{pvrtc.ErrTruncated, "PVRTC_ERR_TRUNCATED"},
		{pvrtc.ErrUnrecognizedFormat, "PVRTC_ERR_UNRECOGNIZED_FORMAT"},
		{pvrtc.ErrUnsupportedDepth, "PVRTC_ERR_UNSUPPORTED_DEPTH"},
		{pvrtc.ErrUnsupportedPixelFormat, "PVRTC_ERR_UNSUPPORTED_PIXEL_FORMAT"},
		{pvrtc.ErrInvalidDimensions, "PVRTC_ERR_INVALID_DIMENSIONS"},
		{pvrtc.ErrCorruptBlock, "PVRTC_ERR_CORRUPT_BLOCK"},
		{pvrtc.ErrUnsupportedLayout, "PVRTC_ERR_UNSUPPORTED_LAYOUT"},
		{pvrtc.ErrBadParam, "PVRTC_ERR_BAD_PARAM"},
	}

	for _, c := range cases {
		if got := pvrtc.ErrorString(c.code); got != c.want {
			t.Fatalf("ErrorString(%d): got %q want %q", uint32(c.code), got, c.want)
		}
	}

	if got := pvrtc.ErrorString(pvrtc.ErrorCode(0xDEADBEEF)); got != "" {
		t.Fatalf("ErrorString(unknown): got %q want %q", got, "")
	}
}

func TestErrorCodeOf(t *testing.T) {
	if got := pvrtc.ErrorCodeOf(nil); got != pvrtc.Success {
		t.Fatalf("ErrorCodeOf(nil): got %v want %v", got, pvrtc.Success)
	}

	_, err := pvrtc.ParseHeader(make([]byte, 4))
	if got := pvrtc.ErrorCodeOf(err); got != pvrtc.ErrTruncated {
		t.Fatalf("ErrorCodeOf(short header): got %v want %v", got, pvrtc.ErrTruncated)
	}

	wrapped := fmt.Errorf("loading texture: %w", err)
	if got := pvrtc.ErrorCodeOf(wrapped); got != pvrtc.ErrTruncated {
		t.Fatalf("ErrorCodeOf(wrapped): got %v want %v", got, pvrtc.ErrTruncated)
	}
	if !errors.Is(wrapped, &pvrtc.Error{Code: pvrtc.ErrTruncated}) {
		t.Fatalf("errors.Is(wrapped, ErrTruncated): got false")
	}
	if errors.Is(wrapped, &pvrtc.Error{Code: pvrtc.ErrBadParam}) {
		t.Fatalf("errors.Is(wrapped, ErrBadParam): got true")
	}

	if got := pvrtc.ErrorCodeOf(errors.New("some other error")); got != pvrtc.ErrBadParam {
		t.Fatalf("ErrorCodeOf(non-pvrtc): got %v want %v", got, pvrtc.ErrBadParam)
	}
}

func TestErrorMessageFallsBackToName(t *testing.T) {
	err := &pvrtc.Error{Code: pvrtc.ErrCorruptBlock}
	if got, want := err.Error(), "pvrtc: PVRTC_ERR_CORRUPT_BLOCK"; got != want {
		t.Fatalf("Error(): got %q want %q", got, want)
	}
}
