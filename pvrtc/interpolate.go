package pvrtc

// interpolate bilinearly blends the endpoint colors p (upper left), q (upper right),
// r (lower left) and s (lower right) at pixel (x, y) and widens the result to 8 bits per channel.
func interpolate(p, q, r, s *endpoint, is2bpp bool, x, y int) (out [4]int) {
	v := localCoord(y, blockHeight) - blockHeight/2

	var u, uscale int
	if is2bpp {
		u = localCoord(x, blockWidth2bpp) - blockWidth2bpp/2
		uscale = blockWidth2bpp
	} else {
		u = localCoord(x, blockWidth4bpp) - blockWidth4bpp/2
		uscale = blockWidth4bpp
	}

	for k := 0; k < 4; k++ {
		top := p[k]*uscale + u*(q[k]-p[k])
		bottom := r[k]*uscale + u*(s[k]-r[k])
		out[k] = top*4 + v*(bottom-top)
	}

	if is2bpp {
		out[0] >>= 2
		out[1] >>= 2
		out[2] >>= 2
		out[3] >>= 1
	} else {
		out[0] >>= 1
		out[1] >>= 1
		out[2] >>= 1
	}
	checkChannels("interpolate", &out)

	// 5.3 and 4.4 fixed point to 8 bits.
	out[0] += out[0] >> 5
	out[1] += out[1] >> 5
	out[2] += out[2] >> 5
	out[3] += out[3] >> 4
	checkChannels("widen", &out)
	return out
}

// modulate blends a and b by mod eighths.
func modulate(a, b *[4]int, mod int) (out [4]int) {
	for k := 0; k < 4; k++ {
		out[k] = (a[k]*8 + mod*(b[k]-a[k])) >> 3
	}
	checkChannels("modulate", &out)
	return out
}
