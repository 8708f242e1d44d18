package rvm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Train fits the model on ds, dispatching to the selected algorithm. It
// validates that the dataset is binary before any allocation, centers the
// candidate kernel templates over the dataset, and then runs the chosen
// sparse-Bayesian trainer. A Model is read-only after Train returns.
func (m *Model) Train(ds Dataset) error {
	if !ds.IsBinary() {
		return fmt.Errorf("train: %w", ErrNonBinaryInput)
	}

	instances, err := centerAll(m.kernelTemplates, ds)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	m.allInstances = instances

	yPM, y01, err := extractLabels(ds)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	if len(instances) == 0 {
		m.warn(warnNoRelevantFeatures)
		m.clearSparseRepresentation(0)
		m.results = LearningResults{ExitReason: "No Relevant Features"}
		m.trained = true
		return nil
	}

	switch m.algorithm {
	case AlgorithmFigueiredo:
		err = m.trainFigueiredo(ds, yPM, y01)
	case AlgorithmSequential:
		err = m.trainSequential(ds, yPM, y01, false)
	case AlgorithmSequentialInMemory:
		err = m.trainSequential(ds, yPM, y01, true)
	default:
		return fmt.Errorf("train: %w: %q", ErrInvalidAlgorithm, m.algorithm)
	}
	if err != nil {
		return err
	}

	m.trained = true
	return nil
}

// extractLabels reads the dataset's N x 2 binary target matrix and derives
// the +-1 labels used by Figueiredo and the {0,1} labels used by IRLS.
func extractLabels(ds Dataset) (yPM, y01 []float64, err error) {
	targets, err := ds.TargetsBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("extract labels: %w", err)
	}
	n, cols := targets.Dims()
	if cols != 2 {
		return nil, nil, fmt.Errorf("extract labels: expected N x 2 target matrix, got N x %d", cols)
	}
	yPM = make([]float64, n)
	y01 = make([]float64, n)
	for i := 0; i < n; i++ {
		if targets.At(i, 1) >= 0.5 {
			yPM[i] = 1
			y01[i] = 1
		} else {
			yPM[i] = -1
			y01[i] = 0
		}
	}
	return yPM, y01, nil
}

// buildFullGram materializes the n x nBasis Gram matrix over the full
// centered candidate basis, for Figueiredo and SequentialInMemory.
func (m *Model) buildFullGram(ds Dataset) (*mat.Dense, error) {
	X, err := ds.Observations(nil)
	if err != nil {
		return nil, fmt.Errorf("build gram: %w", err)
	}
	phi, err := m.gram.Gram(X, m.allInstances)
	if err != nil {
		return nil, fmt.Errorf("build gram: %w", err)
	}
	return phi, nil
}

// clearSparseRepresentation resets the learned output fields to the
// "no relevant features" state: empty sparse representation, full
// zero-padded beta of the given length, no posterior covariance.
func (m *Model) clearSparseRepresentation(nBasis int) {
	m.sparseBeta = nil
	m.sparseKernels = nil
	m.beta = make([]float64, nBasis)
	m.sigma = nil
	m.converged = false
}
