//go:build !pvrtc_debug

package pvrtc

func checkChannels(string, *[4]int) {}
