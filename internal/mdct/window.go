package mdct

import "math"

// Window builds a 2S-sample analysis/synthesis window for a Kernel of
// coefficient count size: a sine-shaped ramp of length transition at each
// edge, flat at unity gain in between. transition must satisfy
// 16 <= transition <= size; a long block (transition == size) degenerates
// to the full sine window used by the canonical MDCT, while a short
// transition lets a transient-adjacent sub-block keep most of its span at
// unit gain so energy outside the transient is not attenuated twice by
// overlapping windows.
//
// At transition == size this is the textbook sine window and satisfies the
// Princen-Bradley condition w(n)^2 + w(n+size)^2 == 1 for n in [0, size),
// which is what lets overlap-add of consecutive Inverse outputs reconstruct
// the original signal. For transition < size the flat middle breaks that
// identity against an adjacent flat window; this repo never reconstructs
// across sub-block boundaries (the decoder side of perfect reconstruction
// is out of scope), so the trade of exact invertibility for transient
// localization is accepted the same way window-switching codecs accept it
// at their long/short boundaries.
func Window(size, transition int) []float32 {
	if transition < 16 || transition > size {
		panic("mdct: transition out of range [16, size]")
	}
	w := make([]float32, 2*size)
	for n := 0; n < transition; n++ {
		w[n] = float32(math.Sin((math.Pi / 2) * (float64(n) + 0.5) / float64(transition)))
	}
	for n := transition; n < 2*size-transition; n++ {
		w[n] = 1
	}
	for n := 0; n < transition; n++ {
		w[2*size-1-n] = w[n]
	}
	return w
}

// Apply multiplies src (length 2*size) by the window in place, writing the
// result into dst (which may alias src).
func Apply(window, src, dst []float32) {
	for i, s := range src {
		dst[i] = s * window[i]
	}
}
