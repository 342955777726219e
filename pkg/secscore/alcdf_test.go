package secscore

import (
	"math"
	"testing"
)

func TestAsymmetricLaplaceCdf_NonFiniteInputsReturnZero(t *testing.T) {
	if got := AsymmetricLaplaceCdf(math.NaN(), 1, 1, 1); got != 0 {
		t.Fatalf("NaN t: got %v, want 0", got)
	}
	if got := AsymmetricLaplaceCdf(1, math.Inf(1), 1, 1); got != 0 {
		t.Fatalf("Inf mu: got %v, want 0", got)
	}
}

func TestAsymmetricLaplaceCdf_AtMu(t *testing.T) {
	mu, lambda, kappa := 4.0, 0.5, 1.2
	got := AsymmetricLaplaceCdf(mu, mu, lambda, kappa)
	want := (kappa * kappa) / (1 + kappa*kappa)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("at t==mu: got %v, want %v", got, want)
	}
}

func TestAsymmetricLaplaceCdf_KnownValues(t *testing.T) {
	got1 := AsymmetricLaplaceCdf(2, 4, 0.5, 1.2)
	if math.Abs(got1-0.256) > 0.001 {
		t.Errorf("AL-CDF(2,4,0.5,1.2) = %.3f, want ~0.256", got1)
	}
	got2 := AsymmetricLaplaceCdf(6, 4, 0.5, 1.2)
	if math.Abs(got2-0.877) > 0.001 {
		t.Errorf("AL-CDF(6,4,0.5,1.2) = %.3f, want ~0.877", got2)
	}
}

func TestAsymmetricLaplaceCdf_ClampedToUnitInterval(t *testing.T) {
	for _, t64 := range []float64{-100, 0, 0.5, 1, 10, 1e6} {
		got := AsymmetricLaplaceCdf(t64, 1, 1, 1)
		if got < 0 || got > 1 {
			t.Fatalf("AL-CDF(%v) = %v, out of [0,1]", t64, got)
		}
	}
}

func TestAsymmetricLaplaceCdf_MonotoneNonDecreasing(t *testing.T) {
	mu, lambda, kappa := 5.0, 0.3, 1.1
	prev := AsymmetricLaplaceCdf(0, mu, lambda, kappa)
	for tWeeks := 1.0; tWeeks <= 50; tWeeks++ {
		cur := AsymmetricLaplaceCdf(tWeeks, mu, lambda, kappa)
		if cur < prev-1e-12 {
			t.Fatalf("AL-CDF not monotone at t=%v: prev=%v cur=%v", tWeeks, prev, cur)
		}
		prev = cur
	}
}

func TestAsymmetricLaplaceCdf_NegativeTClampedToZero(t *testing.T) {
	mu, lambda, kappa := 5.0, 0.3, 1.1
	got := AsymmetricLaplaceCdf(-10, mu, lambda, kappa)
	want := AsymmetricLaplaceCdf(0, mu, lambda, kappa)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("negative t should clamp to 0: got %v, want %v", got, want)
	}
}
