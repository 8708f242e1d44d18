package rvm

import "errors"

// Sentinel errors for the RVM training core error taxonomy. Configuration
// and structural input errors are fatal and wrap one of these so callers can
// match with errors.Is. Numerical warnings (ill-conditioned Gram, no
// relevant features, non-convergence) are not errors: they are recorded on
// Model.warnings and optionally printed when LearningText is set.
var (
	// ErrInvalidAlgorithm is returned by SetAlgorithm when given a value
	// outside {Figueiredo, Sequential, SequentialInMemory}.
	ErrInvalidAlgorithm = errors.New("rvm: invalid algorithm")

	// ErrNonBinaryInput is returned by Train when the dataset is not a
	// two-class problem. Raised before any allocation or computation.
	ErrNonBinaryInput = errors.New("rvm: dataset is not binary")

	// ErrNumericalBreakdown is returned when penalized IRLS cannot recover
	// a positive-definite Hessian even after jitter retries.
	ErrNumericalBreakdown = errors.New("rvm: numerical breakdown in IRLS")

	// errNotTrained is returned by Predict before a successful Train call.
	errNotTrained = errors.New("rvm: model has not been trained")
)

// Warning labels recorded on Model.warnings. These mirror the informational
// taxonomy entries in the error-handling design: recovered locally, never
// returned as errors.
const (
	warnIllConditionedGram = "IllConditionedGram"
	warnNoRelevantFeatures = "NoRelevantFeatures"
	warnNonConvergence     = "NonConvergence"
)
