package mdct

import (
	"math"
	"testing"
)

func TestNewKernel_CreatesValidInstance(t *testing.T) {
	for _, size := range []int{32, 128, 1024} {
		k := NewKernel(size)
		if k.Size() != size {
			t.Fatalf("NewKernel(%d).Size() = %d, want %d", size, k.Size(), size)
		}
		if len(k.cos) != size || len(k.sin) != size {
			t.Fatalf("NewKernel(%d) table rows = %d/%d, want %d", size, len(k.cos), len(k.sin), size)
		}
		if len(k.cos[0]) != 2*size {
			t.Fatalf("NewKernel(%d) row length = %d, want %d", size, len(k.cos[0]), 2*size)
		}
	}
}

func TestNewKernel_PanicsOnOddOrTooSmall(t *testing.T) {
	for _, size := range []int{0, 1, 3, 33} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("NewKernel(%d) did not panic", size)
				}
			}()
			NewKernel(size)
		}()
	}
}

// TestFullSineWindowRoundTrip exercises the standard MDCT/IMDCT overlap-add
// identity at transition == size (the textbook sine window): encoding two
// consecutive, 50%-overlapping windows of a synthetic signal and summing
// their inverse transforms over the shared region reconstructs the
// original samples, up to floating point tolerance.
func TestFullSineWindowRoundTrip(t *testing.T) {
	const size = 64
	k := NewKernel(size)
	win := Window(size, size)

	signal := make([]float32, 4*size)
	for i := range signal {
		signal[i] = float32(math.Sin(2 * math.Pi * float64(i) / 37))
	}

	recon := make([]float32, 4*size)
	windowed := make([]float32, 2*size)
	mdctCoef := make([]float32, size)
	mdstCoef := make([]float32, size)
	timeOut := make([]float32, 2*size)

	for start := 0; start+2*size <= len(signal); start += size {
		Apply(win, signal[start:start+2*size], windowed)
		k.Transform(windowed, mdctCoef, mdstCoef)
		k.Inverse(mdctCoef, timeOut)
		for i, v := range timeOut {
			recon[start+i] += v * win[i]
		}
	}

	// With 50% overlap (window length 2*size, hop size), only the span
	// from one hop in to one hop from the end is covered by exactly two
	// neighboring windows; the first and last hop are each covered by a
	// single window and reconstruct to half amplitude by construction.
	for i := size; i < len(signal)-size; i++ {
		diff := float64(recon[i] - signal[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > 1e-2 {
			t.Fatalf("reconstruction mismatch at %d: got %v want %v (diff %v)", i, recon[i], signal[i], diff)
		}
	}
}

func TestTransform_PanicsOnBadLength(t *testing.T) {
	k := NewKernel(16)
	defer func() {
		if recover() == nil {
			t.Fatalf("Transform did not panic on bad buffer length")
		}
	}()
	k.Transform(make([]float32, 10), make([]float32, 16), make([]float32, 16))
}

func TestTransform_ZeroInputYieldsZeroCoefficients(t *testing.T) {
	k := NewKernel(32)
	in := make([]float32, 64)
	mdctOut := make([]float32, 32)
	mdstOut := make([]float32, 32)
	k.Transform(in, mdctOut, mdstOut)
	for i, v := range mdctOut {
		if v != 0 {
			t.Fatalf("mdctOut[%d] = %v, want 0", i, v)
		}
	}
	for i, v := range mdstOut {
		if v != 0 {
			t.Fatalf("mdstOut[%d] = %v, want 0", i, v)
		}
	}
}
