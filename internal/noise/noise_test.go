package noise

import (
	"math"
	"testing"
)

func TestAnalyze_SilentSpectrumIsZero(t *testing.T) {
	a := &Analyzer{SampleRate: 44100}
	a.Analyze(make([]float32, 64))
	for i, v := range a.floor {
		if v != 0 {
			t.Fatalf("floor[%d] = %v, want 0 for silence", i, v)
		}
	}
}

func TestAnalyze_ProducesFiniteFloor(t *testing.T) {
	a := &Analyzer{SampleRate: 44100}
	power := make([]float32, 128)
	for i := range power {
		power[i] = float32(1 + i)
	}
	a.Analyze(power)
	for i, v := range a.floor {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("floor[%d] = %v, not finite", i, v)
		}
	}
}

func TestNoiseQuant_SilenceDisabled(t *testing.T) {
	a := &Analyzer{SampleRate: 44100}
	a.Analyze(make([]float32, 64))
	if got := a.NoiseQuant(0, 16, 4); got != 0 {
		t.Fatalf("NoiseQuant() on silence = %d, want 0", got)
	}
}

func TestNoiseQuant_BoundedRange(t *testing.T) {
	a := &Analyzer{SampleRate: 44100}
	power := make([]float32, 128)
	for i := range power {
		power[i] = float32(100 + 10*i)
	}
	a.Analyze(power)
	for band := 0; band < 100; band += 16 {
		got := a.NoiseQuant(band, 16, 2)
		if got > 8 {
			t.Fatalf("NoiseQuant(%d,16,2) = %d, want <= 8", band, got)
		}
	}
}

func TestHFExt_BoundedRange(t *testing.T) {
	a := &Analyzer{SampleRate: 48000}
	power := make([]float32, 256)
	for i := range power {
		power[i] = float32(1000 - i)
		if power[i] < 1 {
			power[i] = 1
		}
	}
	a.Analyze(power)
	amp, decay := a.HFExt(64, 32, 3)
	if amp > 15 {
		t.Fatalf("HFExt amplitude = %d, want <= 15", amp)
	}
	_ = decay // decay is a uint8, always in [0,255] by type
}

func TestHFExt_TooNarrowZoneIsZero(t *testing.T) {
	a := &Analyzer{SampleRate: 44100}
	a.Analyze(make([]float32, 64))
	amp, decay := a.HFExt(0, 1, 4)
	if amp != 0 || decay != 0 {
		t.Fatalf("HFExt on width-1 zone = (%d,%d), want (0,0)", amp, decay)
	}
}
