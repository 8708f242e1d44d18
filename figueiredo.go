package rvm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// stdNormal is the standard normal distribution used for the probit
// surrogate inside Figueiredo's EM iteration and for the prediction-time
// link in score.go.
var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// probFloor keeps probit-surrogate and link denominators away from zero.
const probFloor = 1e-12

// trainFigueiredo implements the closed-form-initialized, Jeffreys-prior
// EM-style fixed point iteration of the specification's §4.2, adapted to
// the probit likelihood via the surrogate-response construction in step 4.
func (m *Model) trainFigueiredo(ds Dataset, yPM, y01 []float64) error {
	_ = y01 // Figueiredo works directly off the +-1 labels.

	phi, err := m.buildFullGram(ds)
	if err != nil {
		return err
	}
	n, nBasis := phi.Dims()

	g := mat.NewSymDense(nBasis, nil)
	for i := 0; i < nBasis; i++ {
		for j := i; j < nBasis; j++ {
			s := 0.0
			for t := 0; t < n; t++ {
				s += phi.At(t, i) * phi.At(t, j)
			}
			g.SetSym(i, j, s)
		}
	}

	// Step 1: regularize while ill-conditioned, warning exactly once.
	sigma2 := machineEpsilon
	warned := false
	for attempt := 0; attempt < maxJitterAttempts && rcondSym(g) < 1e-6; attempt++ {
		addDiag(g, sigma2)
		if !warned {
			m.warn(warnIllConditionedGram)
			warned = true
		}
		sigma2 *= 2
	}

	// Step 2: beta <- G \ (Phi' y)
	phty := make([]float64, nBasis)
	for j := 0; j < nBasis; j++ {
		s := 0.0
		for t := 0; t < n; t++ {
			s += phi.At(t, j) * yPM[t]
		}
		phty[j] = s
	}
	beta, err := solveSymVec(g, phty)
	if err != nil {
		return fmt.Errorf("figueiredo: initial solve: %w", err)
	}

	// Step 3: active set = {j : |beta_j| > 0}.
	active := make([]bool, nBasis)
	for j, v := range beta {
		active[j] = v != 0
	}
	betaPrev := append([]float64(nil), beta...)

	converged := false
	exitReason := "Max Iterations"

	for iter := 1; iter <= m.LearningMaxIterations; iter++ {
		activeIdx := selectedIndices(active)
		if len(activeIdx) == 0 {
			m.warn(warnNoRelevantFeatures)
			m.clearSparseRepresentation(nBasis)
			m.results = LearningResults{ExitReason: "No Relevant Features"}
			return nil
		}

		// Surrogate scores: linear score under current beta, shifted by
		// the probit residual term per class.
		surrogate := make([]float64, n)
		for t := 0; t < n; t++ {
			s := 0.0
			for j := 0; j < nBasis; j++ {
				s += phi.At(t, j) * beta[j]
			}
			if yPM[t] > 0 {
				denom := math.Max(1-stdNormal.CDF(-s), probFloor)
				s += stdNormal.Prob(s) / denom
			} else {
				denom := math.Max(stdNormal.CDF(-s), probFloor)
				s -= stdNormal.Prob(s) / denom
			}
			surrogate[t] = s
		}

		k := len(activeIdx)
		u := make([]float64, k)
		for a, j := range activeIdx {
			u[a] = math.Abs(beta[j])
		}

		// M = I + U Phi_A' Phi_A U
		mMat := mat.NewSymDense(k, nil)
		for a := 0; a < k; a++ {
			ja := activeIdx[a]
			for b := a; b < k; b++ {
				jb := activeIdx[b]
				s := 0.0
				for t := 0; t < n; t++ {
					s += phi.At(t, ja) * phi.At(t, jb)
				}
				s *= u[a] * u[b]
				if a == b {
					s += 1.0
				}
				mMat.SetSym(a, b, s)
			}
		}
		rhs := make([]float64, k)
		for a := 0; a < k; a++ {
			ja := activeIdx[a]
			s := 0.0
			for t := 0; t < n; t++ {
				s += phi.At(t, ja) * surrogate[t]
			}
			rhs[a] = u[a] * s
		}
		z, err := solveSymVec(mMat, rhs)
		if err != nil {
			return fmt.Errorf("figueiredo: iteration %d: %w", iter, err)
		}

		newBeta := make([]float64, nBasis)
		for a, j := range activeIdx {
			newBeta[j] = u[a] * z[a]
		}

		// Prune by weight magnitude.
		maxAbs := floats.Norm(newBeta, math.Inf(1))
		thresh := maxAbs * m.LearningBetaRelevantTolerance
		newActive := make([]bool, nBasis)
		anyActive := false
		for j := range newBeta {
			if math.Abs(newBeta[j]) > thresh {
				newActive[j] = true
				anyActive = true
			} else {
				newBeta[j] = 0
			}
		}

		diffNorm := floats.Distance(newBeta, betaPrev, 2)
		prevNorm := floats.Norm(betaPrev, 2)
		relChange := diffNorm
		if prevNorm > 0 {
			relChange = diffNorm / prevNorm
		}

		beta = newBeta
		betaPrev = append([]float64(nil), beta...)
		active = newActive

		if !anyActive {
			m.warn(warnNoRelevantFeatures)
			m.clearSparseRepresentation(nBasis)
			m.results = LearningResults{ExitReason: "No Relevant Features"}
			return nil
		}

		if relChange < m.LearningBetaConvergedTolerance {
			converged = true
			exitReason = "Beta Converged"
			break
		}
	}

	if !converged {
		m.warn(warnNonConvergence)
	}

	sortedActive := selectedIndices(active)
	sparseBeta := make([]float64, len(sortedActive))
	sparseKernels := make([]KernelInstance, len(sortedActive))
	for i, j := range sortedActive {
		sparseBeta[i] = beta[j]
		sparseKernels[i] = m.allInstances[j]
	}

	m.sparseBeta = sparseBeta
	m.sparseKernels = sparseKernels
	m.beta = beta
	m.sigma = nil
	m.converged = converged
	m.results = LearningResults{ExitReason: exitReason}
	return nil
}

// selectedIndices returns the sorted indices where mask is true.
func selectedIndices(mask []bool) []int {
	var idx []int
	for j, v := range mask {
		if v {
			idx = append(idx, j)
		}
	}
	return idx
}
