// Package psycho derives a per-coefficient psychoacoustic masking curve and
// importance score from a sub-block's squared MDCT amplitudes.
//
// Ported from: the reference's masking-curve derivation, which tracked
// fixed-point energy/log-energy and amortized the critical-band and
// noise-band sliding sums with two pointers per band. This port keeps the
// two-pointer sliding-window shape but works directly in float64 natural
// logs; the reference's fixed-point log table and its LogNormScale rescale
// constant have no work left to do once logs are computed directly, so
// LogNormScale collapses to 1 here.
package psycho

import "math"

const logBias = 1e-12

// Analyzer computes masking curves for successive sub-blocks of one
// channel. It holds no sub-block-to-sub-block state; AnalysisPower is the
// caller's current per-channel decaying bias (see the orchestrator), added
// directly into the importance exponent, and NoiseCoding toggles the noise
// band contribution to the masking level.
type Analyzer struct {
	Enabled       bool
	NoiseCoding   bool
	AnalysisPower float64
}

// Result holds the per-coefficient outputs of one Analyze call, each of
// length len(amp2).
type Result struct {
	Masking    []float64
	Importance []float64
}

// Analyze computes the masking curve and importance score for a sub-block
// given its squared MDCT amplitudes (energies). When the Analyzer is
// disabled, Importance is simply amp2 and Masking is left zeroed.
func (a *Analyzer) Analyze(amp2 []float32) Result {
	s := len(amp2)
	res := Result{Masking: make([]float64, s), Importance: make([]float64, s)}
	if !a.Enabled {
		for i, c2 := range amp2 {
			res.Importance[i] = float64(c2)
		}
		return res
	}

	maxAmp2 := float32(0)
	for _, c2 := range amp2 {
		if c2 > maxAmp2 {
			maxAmp2 = c2
		}
	}
	if maxAmp2 == 0 {
		return res
	}

	// Normalize so the peak amplitude equals 2^32; energies scale by the
	// square of the amplitude scale.
	ampScale := math.Pow(2, 32) / math.Sqrt(float64(maxAmp2))
	norm := ampScale * ampScale

	energy := make([]float64, s)
	logEnergy := make([]float64, s)
	for i, c2 := range amp2 {
		e := float64(c2) * norm
		energy[i] = e
		logEnergy[i] = math.Log(e + logBias)
	}

	mainLo, mainHi := slidingWindow(s, func(n int) (int, int) {
		lo := (29 * n) / 32
		hi := (45 * n) / 32
		if hi > s {
			hi = s
		}
		return lo, hi
	})
	const logNormScale = 1.0
	lnNorm := math.Log(norm)

	mw := newWindowAccum(energy, logEnergy)
	var nw *noiseAccum
	if a.NoiseCoding {
		nw = newNoiseAccum(logEnergy)
	}

	for n := 0; n < s; n++ {
		lo, hi := mainLo(n), mainHi(n)
		mw.moveTo(lo, hi)

		noiseSum := 0.0
		if nw != nil {
			nlo := (15 * n) / 16
			nhi := (20 * n) / 16
			if nhi > s {
				nhi = s
			}
			nw.moveTo(nlo, nhi)
			noiseSum = nw.sum
		}

		mean := 0.0
		if mw.sumW != 0 {
			mean = mw.sum / mw.sumW
		}
		m := (mean+noiseSum/float64(s))*(-1.0/(3.0*logNormScale)) + lnNorm/3.0
		res.Masking[n] = m

		flat := 0.0
		if mw.count > 0 {
			meanLogE := mw.sumLogE / float64(mw.count)
			meanE := mw.sumE / float64(mw.count)
			if meanE > 0 {
				flat = math.Exp(meanLogE) / meanE
			}
		}
		if flat < 0 {
			flat = 0
		}
		if flat > 1 {
			flat = 1
		}
		flat2 := flat * flat

		l := 0.5 * logEnergy[n]
		exponent := 2*(3.455*l-2.533*m) + 8*flat2*(flat2-1) + a.AnalysisPower
		res.Importance[n] = math.Exp(exponent)
	}

	return res
}

// slidingWindow returns closures (lo, hi) giving the window bounds for
// index n, computed directly from fn; both are monotone non-decreasing in
// n, which is what makes the two-pointer accumulators below amortized O(1)
// per step.
func slidingWindow(s int, fn func(int) (int, int)) (func(int) int, func(int) int) {
	return func(n int) int { lo, _ := fn(n); return lo },
		func(n int) int { _, hi := fn(n); return hi }
}

// windowAccum tracks Σw·lnE, Σw (w = E), plus the unweighted ΣlnE and ΣE
// needed for the flatness proxy, over a sliding [lo, hi) range.
type windowAccum struct {
	energy, logEnergy []float64
	lo, hi            int
	sum, sumW         float64
	sumLogE, sumE     float64
	count             int
}

func newWindowAccum(energy, logEnergy []float64) *windowAccum {
	return &windowAccum{energy: energy, logEnergy: logEnergy}
}

func (w *windowAccum) moveTo(lo, hi int) {
	for w.hi < hi {
		e := w.energy[w.hi]
		w.sum += e * w.logEnergy[w.hi]
		w.sumW += e
		w.sumLogE += w.logEnergy[w.hi]
		w.sumE += e
		w.count++
		w.hi++
	}
	for w.lo < lo {
		e := w.energy[w.lo]
		w.sum -= e * w.logEnergy[w.lo]
		w.sumW -= e
		w.sumLogE -= w.logEnergy[w.lo]
		w.sumE -= e
		w.count--
		w.lo++
	}
}

// noiseAccum tracks the unweighted ΣlnE over a sliding [lo, hi) range.
type noiseAccum struct {
	logEnergy []float64
	lo, hi    int
	sum       float64
}

func newNoiseAccum(logEnergy []float64) *noiseAccum {
	return &noiseAccum{logEnergy: logEnergy}
}

func (w *noiseAccum) moveTo(lo, hi int) {
	for w.hi < hi {
		w.sum += w.logEnergy[w.hi]
		w.hi++
	}
	for w.lo < lo {
		w.sum -= w.logEnergy[w.lo]
		w.lo++
	}
}
