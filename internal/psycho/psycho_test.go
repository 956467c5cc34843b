package psycho

import (
	"math"
	"testing"
)

func TestAnalyze_DisabledReturnsRawEnergyAsImportance(t *testing.T) {
	a := &Analyzer{Enabled: false}
	amp2 := []float32{1, 4, 9, 0}
	res := a.Analyze(amp2)
	for i, c2 := range amp2 {
		if res.Importance[i] != float64(c2) {
			t.Fatalf("Importance[%d] = %v, want %v", i, res.Importance[i], c2)
		}
		if res.Masking[i] != 0 {
			t.Fatalf("Masking[%d] = %v, want 0 when disabled", i, res.Masking[i])
		}
	}
}

func TestAnalyze_SilentBlockIsZero(t *testing.T) {
	a := &Analyzer{Enabled: true}
	amp2 := make([]float32, 32)
	res := a.Analyze(amp2)
	for i := range amp2 {
		if res.Importance[i] != 0 || res.Masking[i] != 0 {
			t.Fatalf("silent sub-block index %d: Importance=%v Masking=%v, want 0/0", i, res.Importance[i], res.Masking[i])
		}
	}
}

func TestAnalyze_ProducesFiniteOutputs(t *testing.T) {
	a := &Analyzer{Enabled: true, NoiseCoding: true}
	amp2 := make([]float32, 64)
	for i := range amp2 {
		amp2[i] = float32(1 + i%7)
	}
	res := a.Analyze(amp2)
	for i := range amp2 {
		if math.IsNaN(res.Importance[i]) || math.IsInf(res.Importance[i], 0) {
			t.Fatalf("Importance[%d] = %v, not finite", i, res.Importance[i])
		}
		if math.IsNaN(res.Masking[i]) || math.IsInf(res.Masking[i], 0) {
			t.Fatalf("Masking[%d] = %v, not finite", i, res.Masking[i])
		}
		if res.Importance[i] < 0 {
			t.Fatalf("Importance[%d] = %v, want >= 0", i, res.Importance[i])
		}
	}
}

func TestAnalyze_LouderCoefficientHasHigherImportance(t *testing.T) {
	a := &Analyzer{Enabled: true}
	amp2 := make([]float32, 64)
	for i := range amp2 {
		amp2[i] = 1
	}
	amp2[32] = 1000
	res := a.Analyze(amp2)
	if res.Importance[32] <= res.Importance[0] {
		t.Fatalf("Importance[32]=%v should exceed Importance[0]=%v for a much louder bin", res.Importance[32], res.Importance[0])
	}
}

func TestAnalyze_AnalysisPowerShiftsImportanceUniformly(t *testing.T) {
	amp2 := make([]float32, 32)
	for i := range amp2 {
		amp2[i] = float32(2 + i%5)
	}
	a1 := &Analyzer{Enabled: true}
	a2 := &Analyzer{Enabled: true, AnalysisPower: 1.0}
	r1 := a1.Analyze(amp2)
	r2 := a2.Analyze(amp2)
	ratio := math.Exp(1.0)
	for i := range amp2 {
		got := r2.Importance[i] / r1.Importance[i]
		if math.Abs(got-ratio) > 1e-6*ratio {
			t.Fatalf("index %d: importance ratio = %v, want %v", i, got, ratio)
		}
	}
}
