//go:build pvrtc_debug

package pvrtc

import "fmt"

func checkChannels(stage string, v *[4]int) {
	for k, c := range v {
		if c < 0 || c >= 256 {
			panic(fmt.Sprintf("pvrtc: %s: channel %d out of range: %d", stage, k, c))
		}
	}
}
