package rvm

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCloneSymIndependentCopy(t *testing.T) {
	s := mat.NewSymDense(2, []float64{1, 2, 2, 3})
	c := cloneSym(s)
	c.SetSym(0, 0, 99)
	if s.At(0, 0) != 1 {
		t.Fatalf("cloneSym did not produce an independent copy")
	}
}

func TestFactorizeWithJitterOnWellConditioned(t *testing.T) {
	h := mat.NewSymDense(2, []float64{2, 0, 0, 2})
	var chol mat.Cholesky
	if err := factorizeWithJitter(&chol, h); err != nil {
		t.Fatalf("factorizeWithJitter: %v", err)
	}
}

func TestFactorizeWithJitterRecoversFromSingular(t *testing.T) {
	h := mat.NewSymDense(2, []float64{1, 1, 1, 1}) // singular
	var chol mat.Cholesky
	if err := factorizeWithJitter(&chol, h); err != nil {
		t.Fatalf("factorizeWithJitter should recover via jitter, got: %v", err)
	}
}

func TestSolveSymVec(t *testing.T) {
	h := mat.NewSymDense(2, []float64{2, 0, 0, 2})
	x, err := solveSymVec(h, []float64{4, 6})
	if err != nil {
		t.Fatalf("solveSymVec: %v", err)
	}
	if !almostEqual(x[0], 2, 1e-9) || !almostEqual(x[1], 3, 1e-9) {
		t.Errorf("solveSymVec = %v, want [2 3]", x)
	}
}

func TestRcondSymIdentity(t *testing.T) {
	h := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	rc := rcondSym(h)
	if !almostEqual(rc, 1, 1e-9) {
		t.Errorf("rcondSym(I) = %v, want 1", rc)
	}
}

func TestRcondSymSingular(t *testing.T) {
	h := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	rc := rcondSym(h)
	if rc > 1e-9 {
		t.Errorf("rcondSym(singular) = %v, want near 0", rc)
	}
}

func TestAddDiag(t *testing.T) {
	h := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	addDiag(h, 0.5)
	if !almostEqual(h.At(0, 0), 1.5, 1e-9) || !almostEqual(h.At(1, 1), 1.5, 1e-9) {
		t.Errorf("addDiag did not update the diagonal")
	}
	if h.At(0, 1) != 0 {
		t.Errorf("addDiag perturbed an off-diagonal entry")
	}
}

func TestSigmoid(t *testing.T) {
	if !almostEqual(sigmoid(0), 0.5, 1e-9) {
		t.Errorf("sigmoid(0) = %v, want 0.5", sigmoid(0))
	}
	if sigmoid(100) < 0.999 {
		t.Errorf("sigmoid(100) = %v, want near 1", sigmoid(100))
	}
	if sigmoid(-100) > 0.001 {
		t.Errorf("sigmoid(-100) = %v, want near 0", sigmoid(-100))
	}
}
