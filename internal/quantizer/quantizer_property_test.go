package quantizer

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

// TestPartition_AlwaysTilesRangeExactly is a property check: for any
// nonempty slice of finite-amplitude coefficients and any positive delta,
// Partition must produce zones that tile [0, len(cs)) exactly, in order,
// with no gaps or overlaps — the invariant every downstream bitstream
// writer relies on.
func TestPartition_AlwaysTilesRangeExactly(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 256).Draw(t, "n")
		delta := rapid.Float64Range(0.01, 20).Draw(t, "delta")

		cs := make([]Coefficient, n)
		for i := range cs {
			amp := rapid.Float64Range(-1e4, 1e4).Draw(t, "amp")
			cs[i] = Coefficient{
				LogAmplitude: 0.5 * math.Log(amp*amp+1e-24),
				Weight:       amp * amp,
				Amplitude:    amp,
			}
		}

		zones := Partition(cs, delta)
		if len(zones) == 0 {
			t.Fatalf("Partition() produced no zones for %d coefficients", n)
		}
		if zones[0].Start != 0 {
			t.Fatalf("first zone starts at %d, want 0", zones[0].Start)
		}
		if zones[len(zones)-1].End != n {
			t.Fatalf("last zone ends at %d, want %d", zones[len(zones)-1].End, n)
		}
		for i := 1; i < len(zones); i++ {
			if zones[i].Start != zones[i-1].End {
				t.Fatalf("gap/overlap between zone %+v and %+v", zones[i-1], zones[i])
			}
		}
		if len(zones) > MaxZones {
			t.Fatalf("Partition() produced %d zones, want <= %d", len(zones), MaxZones)
		}
	})
}
