// Package noise derives the per-band noise floor used for noise-fill side
// information and high-frequency extension parameters.
//
// Ported from: the reference's two-sliding-window (mask/floor) log-noise-
// floor combination and its weighted least-squares HF-extension fit. The
// reference solves the weighted fit by hand over a pre-multiplied (w, w·y)
// pair array; this port hands the same (x, y, weight) triples to
// gonum.org/v1/gonum/stat.LinearRegression directly, since that is exactly
// the weighted ordinary-least-squares solve the reference's pairing trick
// approximates (see DESIGN.md).
package noise

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const logBias = 1e-12

// Analyzer computes the noise floor curve for one sub-block's pseudo-DFT
// power spectrum (MDCT² + MDST²) and answers per-zone noise-fill queries
// against it.
type Analyzer struct {
	SampleRate int

	floor []float64 // log_noise_floor, one per band
	norm  float64   // amplitude normalization applied before the log domain
}

// rangeScales returns the mask/floor window width ratios derived from the
// sample rate, per the reference's LoRangeScale/HiRangeScale derivation.
func (a *Analyzer) rangeScales() (lo, hi float64) {
	rate := float64(a.SampleRate)
	lo = math.Min(1, 32000.0/rate)
	hi = math.Max(1, rate/44000.0)
	return
}

// Analyze computes the log-noise-floor curve over power (length N/2,
// pseudo-DFT power per band). It must be called before any noise_quant or
// hf_ext queries for the sub-block.
func (a *Analyzer) Analyze(power []float32) {
	n := len(power)
	a.floor = make([]float64, n)
	if n == 0 {
		return
	}

	maxP := float32(0)
	for _, p := range power {
		if p > maxP {
			maxP = p
		}
	}
	if maxP == 0 {
		a.norm = 1
		return
	}
	a.norm = math.Pow(2, 32) / float64(maxP)
	lnNorm := math.Log(a.norm)

	logPower := make([]float64, n)
	for i, p := range power {
		logPower[i] = math.Log(float64(p)*a.norm + logBias)
	}

	lo, hi := a.rangeScales()

	maskW, maskWV := 0.0, 0.0
	floorSum, floorCount := 0.0, 0.0
	maskLoPtr, maskHiPtr := 0, 0
	floorLoPtr, floorHiPtr := 0, 0

	for band := 0; band < n; band++ {
		wantLo := int(float64(band) * lo)
		wantHi := int(float64(band) * hi)
		if wantHi > n {
			wantHi = n
		}
		if wantLo < 0 {
			wantLo = 0
		}

		for maskHiPtr < wantHi {
			p := math.Exp(logPower[maskHiPtr])
			maskWV += p * logPower[maskHiPtr]
			maskW += p
			maskHiPtr++
		}
		for maskLoPtr < wantLo {
			p := math.Exp(logPower[maskLoPtr])
			maskWV -= p * logPower[maskLoPtr]
			maskW -= p
			maskLoPtr++
		}
		for floorHiPtr < wantHi {
			floorSum += logPower[floorHiPtr]
			floorCount++
			floorHiPtr++
		}
		for floorLoPtr < wantLo {
			floorSum -= logPower[floorLoPtr]
			floorCount--
			floorLoPtr++
		}

		mask := 0.0
		if maskW != 0 {
			mask = maskWV / maskW
		}
		floor := 0.0
		if floorCount != 0 {
			floor = floorSum / floorCount
		}

		const invLogScale = 1.0
		a.floor[band] = (2*floor-mask)*invLogScale + lnNorm
	}
}

// weightedPairs returns the (x, y, weight) triples for [band, band+width)
// used by both noise_quant and hf_ext: x is the in-zone sample index,
// y is the log-noise-floor, and w ≈ exp(0.5·y) is the reference's weight
// approximation (computed here directly rather than via its (1+x/m)^m
// expansion, per the logarithm-approximation substitutability note).
func (a *Analyzer) weightedPairs(band, width int) (xs, ys, ws []float64) {
	end := band + width
	if end > len(a.floor) {
		end = len(a.floor)
	}
	for i := band; i < end; i++ {
		y := a.floor[i]
		xs = append(xs, float64(i-band))
		ys = append(ys, y)
		ws = append(ws, math.Exp(0.5*y))
	}
	return
}

// NoiseQuant returns the 4-bit unsigned quantized geometric-mean noise
// amplitude for [band, band+width) relative to quantizer exponent q
// (quantizer step 2^q), in [0, 8]; 0 means noise-fill is disabled for this
// zone (the geometric-mean amplitude quantizes to nothing at this step).
func (a *Analyzer) NoiseQuant(band, width, q int) uint8 {
	_, ys, ws := a.weightedPairs(band, width)
	if len(ys) == 0 {
		return 0
	}
	var sumW, sumWY float64
	for i, y := range ys {
		sumW += ws[i]
		sumWY += ws[i] * y
	}
	if sumW == 0 {
		return 0
	}
	meanY := sumWY / sumW
	amplitude := math.Exp(meanY / 2)
	step := math.Pow(2, float64(q))
	v := math.Round(amplitude / step)
	if v < 0 {
		v = 0
	}
	if v > 8 {
		v = 8
	}
	return uint8(v)
}

// HFExt solves the weighted linear regression ln(y) ≈ a + b·x over
// [band, band+width) and returns (amplitude, decay) encoding exp(a) and
// 1 − exp(b), clamped to their wire ranges [0,15] and [0,255].
func (a *Analyzer) HFExt(band, width, q int) (amplitude uint8, decay uint8) {
	xs, ys, ws := a.weightedPairs(band, width)
	if len(xs) < 2 {
		return 0, 0
	}
	alpha, beta := stat.LinearRegression(xs, ys, ws, false)

	amp := math.Exp(alpha)
	step := math.Pow(2, float64(q))
	ampQ := math.Round(amp / step)
	if ampQ < 0 {
		ampQ = 0
	}
	if ampQ > 15 {
		ampQ = 15
	}

	d := 1 - math.Exp(beta)
	if d < 0 {
		d = 0
	}
	if d > 1 {
		d = 1
	}
	decayQ := math.Round(d * 255)

	return uint8(ampQ), uint8(decayQ)
}
