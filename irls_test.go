package rvm

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestPenalizedIRLSRecoversSign(t *testing.T) {
	phiA := mat.NewDense(4, 1, []float64{-2, -1, 1, 2})
	y01 := []float64{0, 0, 1, 1}

	res, err := penalizedIRLS(y01, phiA, []float64{1e-6}, nil)
	if err != nil {
		t.Fatalf("penalizedIRLS: %v", err)
	}
	if res.mu[0] <= 0 {
		t.Errorf("mu = %v, want a positive weight for positively-correlated feature", res.mu[0])
	}
	for i, yh := range res.yHat {
		if yh <= 0 || yh >= 1 {
			t.Errorf("yHat[%d] = %v, want in (0,1)", i, yh)
		}
	}
	if res.sigma.SymmetricDim() != 1 {
		t.Errorf("sigma dim = %d, want 1", res.sigma.SymmetricDim())
	}
}

func TestPenalizedIRLSStrongPriorShrinksWeight(t *testing.T) {
	phiA := mat.NewDense(4, 1, []float64{-2, -1, 1, 2})
	y01 := []float64{0, 0, 1, 1}

	res, err := penalizedIRLS(y01, phiA, []float64{1e6}, nil)
	if err != nil {
		t.Fatalf("penalizedIRLS: %v", err)
	}
	if !almostEqual(res.mu[0], 0, 1e-3) {
		t.Errorf("mu = %v, want near 0 under a strong prior", res.mu[0])
	}
}

func TestPenalizedIRLSWarmStart(t *testing.T) {
	phiA := mat.NewDense(4, 1, []float64{-2, -1, 1, 2})
	y01 := []float64{0, 0, 1, 1}

	cold, err := penalizedIRLS(y01, phiA, []float64{1e-6}, nil)
	if err != nil {
		t.Fatalf("penalizedIRLS (cold): %v", err)
	}
	warm, err := penalizedIRLS(y01, phiA, []float64{1e-6}, []float64{cold.mu[0]})
	if err != nil {
		t.Fatalf("penalizedIRLS (warm): %v", err)
	}
	if !almostEqual(cold.mu[0], warm.mu[0], 1e-6) {
		t.Errorf("warm start converged to a different point: cold=%v warm=%v", cold.mu[0], warm.mu[0])
	}
}
