package rvm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// irlsMaxIter bounds the Newton iteration inside penalizedIRLS. The
// specification only asks for "a small gradient norm or a fixed cap"; this
// is the fixed cap.
const irlsMaxIter = 25

// irlsGradTol is the Newton convergence threshold on the penalized
// log-posterior gradient norm.
const irlsGradTol = 1e-8

// irlsMinWeight floors the IRLS weight w = yhat(1-yhat) away from zero so
// the penalized Hessian never degenerates on a confidently-classified
// point.
const irlsMinWeight = 1e-9

// irlsResult bundles the Laplace approximation produced by penalizedIRLS:
// the MAP weights, the posterior covariance, the final IRLS weights
// (obsNoiseVar), and the fitted probabilities.
type irlsResult struct {
	mu          []float64
	sigma       *mat.SymDense
	obsNoiseVar []float64
	yHat        []float64
}

// penalizedIRLS runs Newton's method on the penalized negative
// log-posterior of a logistic likelihood (the link used internally by
// IRLS; prediction uses the probit CDF — see the specification's Open
// Question on this inherited inconsistency) to find the Laplace
// approximation (mu, Sigma) for the active basis.
//
// phiA is the n x k matrix of active-basis evaluations, alphaA the length-k
// precision diagonal, muInit an optional length-k warm start (nil means
// start from zero).
func penalizedIRLS(y01 []float64, phiA *mat.Dense, alphaA []float64, muInit []float64) (*irlsResult, error) {
	n, k := phiA.Dims()
	mu := make([]float64, k)
	if muInit != nil {
		copy(mu, muInit)
	}

	w := make([]float64, n)
	yHat := make([]float64, n)
	eta := make([]float64, n)

	var chol mat.Cholesky
	var h *mat.SymDense

	for iter := 0; iter < irlsMaxIter; iter++ {
		for t := 0; t < n; t++ {
			s := 0.0
			for j := 0; j < k; j++ {
				s += phiA.At(t, j) * mu[j]
			}
			eta[t] = s
			yHat[t] = sigmoid(s)
			wt := yHat[t] * (1 - yHat[t])
			if wt < irlsMinWeight {
				wt = irlsMinWeight
			}
			w[t] = wt
		}

		grad := make([]float64, k)
		gradNorm := 0.0
		for j := 0; j < k; j++ {
			s := 0.0
			for t := 0; t < n; t++ {
				s += phiA.At(t, j) * (y01[t] - yHat[t])
			}
			s -= alphaA[j] * mu[j]
			grad[j] = s
			gradNorm += s * s
		}

		h = buildPenalizedHessian(phiA, w, alphaA)
		if err := factorizeWithJitter(&chol, h); err != nil {
			return nil, err
		}

		if gradNorm < irlsGradTol*irlsGradTol {
			break
		}

		var delta mat.VecDense
		if err := chol.SolveVecTo(&delta, mat.NewVecDense(k, grad)); err != nil {
			return nil, fmt.Errorf("irls: newton step: %w", err)
		}
		for j := 0; j < k; j++ {
			mu[j] += delta.AtVec(j)
		}
	}

	sigma := mat.NewSymDense(k, nil)
	if err := sigma.InverseCholesky(&chol); err != nil {
		return nil, fmt.Errorf("irls: posterior covariance: %w", err)
	}

	return &irlsResult{mu: mu, sigma: sigma, obsNoiseVar: w, yHat: yHat}, nil
}

// buildPenalizedHessian forms H = Phi_A' diag(w) Phi_A + diag(alphaA).
func buildPenalizedHessian(phiA *mat.Dense, w, alphaA []float64) *mat.SymDense {
	n, k := phiA.Dims()
	h := mat.NewSymDense(k, nil)
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			s := 0.0
			for t := 0; t < n; t++ {
				s += phiA.At(t, a) * w[t] * phiA.At(t, b)
			}
			if a == b {
				s += alphaA[a]
			}
			h.SetSym(a, b, s)
		}
	}
	return h
}
