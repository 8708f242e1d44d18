package rvm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// machineEpsilon is the starting jitter magnitude for Cholesky retries,
// matching the "doubling from machine epsilon" policy in the
// specification's numerical-fragility notes.
const machineEpsilon = 2.220446049250313e-16

// maxJitterAttempts bounds the doubling-jitter retry loop before a
// Cholesky failure is treated as fatal (NumericalBreakdown).
const maxJitterAttempts = 40

// cloneSym returns an independent copy of a symmetric matrix, used so
// jitter retries never mutate the caller's Hessian.
func cloneSym(s *mat.SymDense) *mat.SymDense {
	n := s.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, s.At(i, j))
		}
	}
	return out
}

// factorizeWithJitter factorizes a symmetric matrix, adding a doubling
// diagonal jitter and retrying on failure. The caller observes a
// symmetric positive-definite covariance either way; past maxJitterAttempts
// the failure is surfaced as ErrNumericalBreakdown.
func factorizeWithJitter(chol *mat.Cholesky, h *mat.SymDense) error {
	if chol.Factorize(h) {
		return nil
	}
	jitter := machineEpsilon
	for attempt := 0; attempt < maxJitterAttempts; attempt++ {
		jittered := cloneSym(h)
		n := jittered.SymmetricDim()
		for i := 0; i < n; i++ {
			jittered.SetSym(i, i, jittered.At(i, i)+jitter)
		}
		if chol.Factorize(jittered) {
			return nil
		}
		jitter *= 2
	}
	return fmt.Errorf("%w: Cholesky factorization failed after %d jitter attempts", ErrNumericalBreakdown, maxJitterAttempts)
}

// solveSymVec solves H x = b for a symmetric matrix H via Cholesky, with
// jitter retry, returning the plain float64 solution.
func solveSymVec(h *mat.SymDense, b []float64) ([]float64, error) {
	var chol mat.Cholesky
	if err := factorizeWithJitter(&chol, h); err != nil {
		return nil, err
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(len(b), b)); err != nil {
		return nil, fmt.Errorf("solveSymVec: %w", err)
	}
	out := make([]float64, len(b))
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// rcondSym estimates the reciprocal condition number of a symmetric
// (here, always positive semidefinite) matrix via its singular values,
// mirroring the teacher's SVD-fallback idiom for ill-conditioned normal
// equations rather than introducing a new linear-algebra dependency.
func rcondSym(h *mat.SymDense) float64 {
	var svd mat.SVD
	if !svd.Factorize(h, mat.SVDNone) {
		return 0
	}
	sv := svd.Values(nil)
	if len(sv) == 0 || sv[0] == 0 {
		return 0
	}
	return sv[len(sv)-1] / sv[0]
}

// addDiag adds c to every diagonal entry of a symmetric matrix in place.
func addDiag(h *mat.SymDense, c float64) {
	n := h.SymmetricDim()
	for i := 0; i < n; i++ {
		h.SetSym(i, i, h.At(i, i)+c)
	}
}

// sigmoid is the logistic link used inside IRLS (kept distinct from the
// probit link used at prediction time, per the specification's documented
// modeling inconsistency).
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
