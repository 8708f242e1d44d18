package rvm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// gramBlockSource abstracts how the Sequential trainer obtains Gram matrix
// columns. The streaming variant asks the Gram adapter for fresh column
// blocks on demand (bounded memory); the in-memory variant slices a single
// precomputed matrix. Both share one algorithmic core, mirroring how the
// teacher keeps one Estimator interface behind distinct implementations.
type gramBlockSource interface {
	nObservations() int
	nBasis() int
	// block returns the n x (end-start) submatrix for columns [start, end).
	block(start, end int) (*mat.Dense, error)
}

type streamingGramSource struct {
	x       *mat.Dense
	kernels []KernelInstance
	gram    GramBuilder
}

func (s *streamingGramSource) nObservations() int { r, _ := s.x.Dims(); return r }
func (s *streamingGramSource) nBasis() int         { return len(s.kernels) }
func (s *streamingGramSource) block(start, end int) (*mat.Dense, error) {
	return s.gram.Gram(s.x, s.kernels[start:end])
}

type inMemoryGramSource struct {
	phi *mat.Dense
}

func (s *inMemoryGramSource) nObservations() int { r, _ := s.phi.Dims(); return r }
func (s *inMemoryGramSource) nBasis() int         { _, c := s.phi.Dims(); return c }
func (s *inMemoryGramSource) block(start, end int) (*mat.Dense, error) {
	n, _ := s.phi.Dims()
	return mat.DenseCopyOf(s.phi.Slice(0, n, start, end)), nil
}

// gramColumns assembles the n x len(indices) matrix of the requested basis
// columns, re-deriving each one from src rather than maintaining an
// incrementally-updated Phi_A.
func gramColumns(src gramBlockSource, indices []int) (*mat.Dense, error) {
	n := src.nObservations()
	out := mat.NewDense(n, len(indices), nil)
	for c, j := range indices {
		col, err := src.block(j, j+1)
		if err != nil {
			return nil, fmt.Errorf("gram columns: %w", err)
		}
		for t := 0; t < n; t++ {
			out.Set(t, c, col.At(t, 0))
		}
	}
	return out, nil
}

// trainSequential implements the Tipping-Faul fast marginal-likelihood
// maximization of the specification's §4.3, either streaming Gram columns
// in blocks of LearningSequentialBlockSize or over a single precomputed
// Gram matrix, selected by inMemory.
func (m *Model) trainSequential(ds Dataset, yPM, y01 []float64, inMemory bool) error {
	X, err := ds.Observations(nil)
	if err != nil {
		return fmt.Errorf("sequential: observations: %w", err)
	}

	var src gramBlockSource
	if inMemory {
		phi, err := m.buildFullGram(ds)
		if err != nil {
			return err
		}
		src = &inMemoryGramSource{phi: phi}
	} else {
		src = &streamingGramSource{x: X, kernels: m.allInstances, gram: m.gram}
	}

	n := src.nObservations()
	nBasis := src.nBasis()

	blockSize := m.LearningSequentialBlockSize
	if inMemory || blockSize <= 0 || blockSize > nBasis {
		blockSize = nBasis
	}

	// --- Initialization ---

	seed, found, err := seedBasis(src, yPM, blockSize)
	if err != nil {
		return fmt.Errorf("sequential: seed selection: %w", err)
	}
	if !found {
		m.warn(warnNoRelevantFeatures)
		m.clearSparseRepresentation(nBasis)
		m.results = LearningResults{ExitReason: "No Relevant Features"}
		return nil
	}

	active := newActiveSet(nBasis)
	active.add(seed)
	alpha := make([]float64, nBasis)
	for j := range alpha {
		alpha[j] = math.Inf(1)
	}

	seedCol, err := src.block(seed, seed+1)
	if err != nil {
		return fmt.Errorf("sequential: seed column: %w", err)
	}
	mu0 := initialSeedWeight(seedCol, yPM)
	alpha[seed] = 1 / (mu0 * mu0)

	phiA, err := gramColumns(src, active.sortedIndices())
	if err != nil {
		return err
	}
	res, err := penalizedIRLS(y01, phiA, []float64{alpha[seed]}, []float64{mu0})
	if err != nil {
		return fmt.Errorf("sequential: initial IRLS: %w", err)
	}
	mu, sigma, w, yHat := res.mu, res.sigma, res.obsNoiseVar, res.yHat

	converged := false
	exitReason := "Max Iterations"
	exitValue := 0.0

	// --- Main loop ---

	for iter := 1; iter <= m.LearningMaxIterations; iter++ {
		oldSorted := append([]int(nil), active.sortedIndices()...)
		kOld := len(oldSorted)

		resid := make([]float64, n)
		for t := 0; t < n; t++ {
			resid[t] = y01[t] - yHat[t]
		}

		rawS := make([]float64, nBasis)
		rawQ := make([]float64, nBasis)
		s := make([]float64, nBasis)
		q := make([]float64, nBasis)
		theta := make([]float64, nBasis)
		addDelta := make([]float64, nBasis)
		remDelta := make([]float64, nBasis)
		modDelta := make([]float64, nBasis)
		alphaStar := make([]float64, nBasis)

		for start := 0; start < nBasis; start += blockSize {
			end := start + blockSize
			if end > nBasis {
				end = nBasis
			}
			blk, err := src.block(start, end)
			if err != nil {
				return fmt.Errorf("sequential: iteration %d: %w", iter, err)
			}
			for col := 0; col < end-start; col++ {
				mIdx := start + col

				sm := 0.0
				qm := 0.0
				for t := 0; t < n; t++ {
					phi := blk.At(t, col)
					sm += w[t] * phi * phi
					qm += resid[t] * phi
				}

				if kOld > 0 {
					u := make([]float64, kOld)
					for a := 0; a < kOld; a++ {
						acc := 0.0
						for t := 0; t < n; t++ {
							acc += phiA.At(t, a) * w[t] * blk.At(t, col)
						}
						u[a] = acc
					}
					proj := 0.0
					for a := 0; a < kOld; a++ {
						sa := 0.0
						for b := 0; b < kOld; b++ {
							sa += sigma.At(a, b) * u[b]
						}
						proj += u[a] * sa
					}
					sm -= proj
				}

				rawS[mIdx] = sm
				rawQ[mIdx] = qm

				if active.contains(mIdx) {
					am := alpha[mIdx]
					denom := am - sm
					s[mIdx] = am * sm / denom
					q[mIdx] = am * qm / denom
				} else {
					s[mIdx] = sm
					q[mIdx] = qm
				}
				theta[mIdx] = q[mIdx]*q[mIdx] - s[mIdx]

				switch {
				case !active.contains(mIdx) && theta[mIdx] > 0 && rawS[mIdx] > 0 && rawQ[mIdx] != 0:
					addDelta[mIdx] = 0.5 * (theta[mIdx]/rawS[mIdx] + math.Log(rawS[mIdx]/(rawQ[mIdx]*rawQ[mIdx])))
				case active.contains(mIdx):
					am := alpha[mIdx]
					denom := s[mIdx] + am
					if denom > 0 && am > 0 {
						remDelta[mIdx] = -0.5 * (q[mIdx]*q[mIdx]/denom - math.Log(1+s[mIdx]/am))
					}
				}

				if active.contains(mIdx) && theta[mIdx] > 0 {
					as := s[mIdx] * s[mIdx] / theta[mIdx]
					alphaStar[mIdx] = as
					delta := 1/as - 1/alpha[mIdx]
					logArg := 1 + rawS[mIdx]*delta
					if logArg > 0 {
						modDelta[mIdx] = 0.5 * (delta*rawQ[mIdx]*rawQ[mIdx]/(delta*rawS[mIdx]+1) - math.Log(logArg))
					}
				} else if !active.contains(mIdx) && theta[mIdx] > 0 {
					alphaStar[mIdx] = s[mIdx] * s[mIdx] / theta[mIdx]
				}
			}
		}

		if active.size() <= 1 {
			for _, j := range oldSorted {
				remDelta[j] = 0
			}
		}

		jA, addChange := argmaxFloat(addDelta)
		jR, remChange := argmaxFloat(remDelta)
		jM, modChange := argmaxFloat(modDelta)

		var moveType string
		var moveIdx int
		var chosenDelta float64

		if iter == 1 {
			if addChange >= modChange {
				moveType, moveIdx, chosenDelta = "add", jA, addChange
			} else {
				moveType, moveIdx, chosenDelta = "modify", jM, modChange
			}
		} else if remChange > 0 {
			if remChange >= modDelta[jR] {
				moveType, moveIdx, chosenDelta = "remove", jR, remChange
			} else {
				moveType, moveIdx, chosenDelta = "modify", jR, modDelta[jR]
			}
		} else {
			moveType, moveIdx, chosenDelta = "add", jA, addChange
			if remChange > chosenDelta {
				moveType, moveIdx, chosenDelta = "remove", jR, remChange
			}
			if modChange > chosenDelta {
				moveType, moveIdx, chosenDelta = "modify", jM, modChange
			}
		}

		if chosenDelta < m.LearningLikelihoodIncreaseThreshold {
			converged = true
			exitReason = "No Good Actions"
			exitValue = chosenDelta
			break
		}

		preAlpha := append([]float64(nil), alpha...)

		var muWarm []float64
		switch moveType {
		case "add":
			phij, err := src.block(moveIdx, moveIdx+1)
			if err != nil {
				return fmt.Errorf("sequential: add column: %w", err)
			}
			c := make([]float64, kOld)
			for a := 0; a < kOld; a++ {
				acc := 0.0
				for t := 0; t < n; t++ {
					acc += phiA.At(t, a) * w[t] * phij.At(t, 0)
				}
				c[a] = acc
			}
			sigc := make([]float64, kOld)
			for a := 0; a < kOld; a++ {
				acc := 0.0
				for b := 0; b < kOld; b++ {
					acc += sigma.At(a, b) * c[b]
				}
				sigc[a] = acc
			}
			sjj := 1 / (alphaStar[moveIdx] + rawS[moveIdx])
			muNew := sjj * rawQ[moveIdx]

			shifted := make([]float64, kOld)
			for a := 0; a < kOld; a++ {
				shifted[a] = mu[a] - muNew*sigc[a]
			}

			alpha[moveIdx] = alphaStar[moveIdx]
			pos := active.add(moveIdx)
			muWarm = make([]float64, kOld+1)
			copy(muWarm[:pos], shifted[:pos])
			muWarm[pos] = muNew
			copy(muWarm[pos+1:], shifted[pos:])

		case "remove":
			pos := active.rank(moveIdx)
			muJ := mu[pos]
			sjj := sigma.At(pos, pos)
			adjusted := make([]float64, kOld)
			for a := 0; a < kOld; a++ {
				adjusted[a] = mu[a] + (muJ/sjj)*sigma.At(a, pos)
			}
			alpha[moveIdx] = math.Inf(1)
			active.remove(moveIdx)
			muWarm = append(append([]float64{}, adjusted[:pos]...), adjusted[pos+1:]...)

		case "modify":
			pos := active.rank(moveIdx)
			muJ := mu[pos]
			sjj := sigma.At(pos, pos)
			newAlpha := alphaStar[moveIdx]
			oldAlpha := alpha[moveIdx]
			kappa := 1 / (sjj + 1/(newAlpha-oldAlpha))
			muWarm = make([]float64, kOld)
			for a := 0; a < kOld; a++ {
				muWarm[a] = mu[a] - muJ*kappa*sigma.At(a, pos)
			}
			alpha[moveIdx] = newAlpha
		}

		newSorted := active.sortedIndices()
		phiANew, err := gramColumns(src, newSorted)
		if err != nil {
			return err
		}
		alphaANew := make([]float64, len(newSorted))
		for i, j := range newSorted {
			alphaANew[i] = alpha[j]
		}

		res, err := penalizedIRLS(y01, phiANew, alphaANew, muWarm)
		if err != nil {
			return err
		}
		mu, sigma, w, yHat = res.mu, res.sigma, res.obsNoiseVar, res.yHat
		phiA = phiANew

		m.beta = fullBeta(nBasis, newSorted, mu)

		if iter > 1 {
			maxTau := 0.0
			for j := 0; j < nBasis; j++ {
				tau := logAlphaDiff(alpha[j], preAlpha[j])
				if tau > maxTau {
					maxTau = tau
				}
			}
			if maxTau < m.LearningBetaConvergedTolerance {
				converged = true
				exitReason = "Alpha Not Changing"
				exitValue = maxTau
				break
			}
		}
	}

	if !converged {
		m.warn(warnNonConvergence)
	}

	finalSorted := active.sortedIndices()
	if len(finalSorted) == 0 {
		m.warn(warnNoRelevantFeatures)
		m.clearSparseRepresentation(nBasis)
		m.results = LearningResults{ExitReason: "No Relevant Features"}
		return nil
	}

	sparseBeta := append([]float64(nil), mu...)
	sparseKernels := make([]KernelInstance, len(finalSorted))
	for i, j := range finalSorted {
		sparseKernels[i] = m.allInstances[j]
	}

	m.sparseBeta = sparseBeta
	m.sparseKernels = sparseKernels
	m.beta = fullBeta(nBasis, finalSorted, mu)
	m.sigma = sigma
	m.converged = converged
	m.results = LearningResults{ExitReason: exitReason, ExitValue: exitValue}
	return nil
}

// seedBasis normalizes each candidate column to unit L2 norm and returns
// the index maximizing |phi_n' y±|, the Sequential trainer's seed basis.
func seedBasis(src gramBlockSource, yPM []float64, blockSize int) (int, bool, error) {
	n := src.nObservations()
	nBasis := src.nBasis()
	best := -1
	bestScore := 0.0
	for start := 0; start < nBasis; start += blockSize {
		end := start + blockSize
		if end > nBasis {
			end = nBasis
		}
		blk, err := src.block(start, end)
		if err != nil {
			return 0, false, err
		}
		for col := 0; col < end-start; col++ {
			norm := 0.0
			dot := 0.0
			for t := 0; t < n; t++ {
				v := blk.At(t, col)
				norm += v * v
				dot += v * yPM[t]
			}
			norm = math.Sqrt(norm)
			if norm < 1e-12 {
				continue
			}
			score := math.Abs(dot) / norm
			if score > bestScore || best == -1 {
				bestScore = score
				best = start + col
			}
		}
	}
	return best, best != -1, nil
}

// initialSeedWeight computes the univariate least-squares slope of the
// logit of a shrunk {0,1} label against the seed column, the Sequential
// trainer's initial mu before the first IRLS call.
func initialSeedWeight(seedCol *mat.Dense, yPM []float64) float64 {
	n, _ := seedCol.Dims()
	num, den := 0.0, 0.0
	for t := 0; t < n; t++ {
		z := (yPM[t]*0.9 + 1) / 2
		logit := math.Log(z / (1 - z))
		phi := seedCol.At(t, 0)
		num += phi * logit
		den += phi * phi
	}
	if den < 1e-12 {
		return 1e-3
	}
	mu := num / den
	if math.Abs(mu) < 1e-6 {
		if mu < 0 {
			return -1e-6
		}
		return 1e-6
	}
	return mu
}

// argmaxFloat returns the index and value of the largest entry. Ineligible
// moves are left at their zero value by the caller, matching the
// specification's "ineligible moves get Delta = 0" convention.
func argmaxFloat(xs []float64) (int, float64) {
	idx := floats.MaxIdx(xs)
	return idx, xs[idx]
}

// logAlphaDiff is |log a - log b|, with the inf-inf case treated as 0 per
// the specification's convergence rule.
func logAlphaDiff(a, b float64) float64 {
	if math.IsInf(a, 1) && math.IsInf(b, 1) {
		return 0
	}
	return math.Abs(math.Log(a) - math.Log(b))
}

// fullBeta expands a compact weight vector (aligned to sortedIdx) into a
// zero-padded vector over every candidate basis.
func fullBeta(nBasis int, sortedIdx []int, mu []float64) []float64 {
	out := make([]float64, nBasis)
	for i, j := range sortedIdx {
		out[j] = mu[i]
	}
	return out
}
