// Package rvm implements the training core of a Relevance Vector Machine
// binary classifier with a probit likelihood. It learns a sparse linear
// combination of kernel basis functions under a zero-mean Gaussian prior
// with per-basis precision hyperparameters, maximizing a Bayesian evidence
// objective, via two interchangeable algorithms: the Figueiredo EM-style
// iteration with a Jeffreys prior, and the Tipping-Faul fast sequential
// marginal-likelihood maximization (streaming or in-memory).
//
// Kernel evaluation, dataset storage, and plotting are external concerns:
// callers supply a Dataset and a set of KernelTemplate descriptors and get
// back a sparse weight vector plus the subset of kernels it is defined
// over.
package rvm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dataset is the external observation/label collaborator. The core never
// mutates a Dataset; it only reads rows and the binary target encoding.
type Dataset interface {
	// NObservations returns N, the number of training rows.
	NObservations() int
	// NFeatures returns D, the number of input features per row.
	NFeatures() int
	// Observations returns the rows at the given indices as an n x D
	// matrix. A nil indices slice means "all rows, in order".
	Observations(indices []int) (*mat.Dense, error)
	// TargetsBinary returns an N x 2 matrix; column 1 is 1 for the
	// positive class and 0 otherwise, column 0 the complement.
	TargetsBinary() (*mat.Dense, error)
	// IsBinary reports whether the dataset has exactly two classes.
	IsBinary() bool
}

// KernelInstance is a single concrete basis function, already centered on
// some point (or otherwise fixed) by its originating KernelTemplate.
type KernelInstance interface {
	// Evaluate computes this basis function at every row of X, returning
	// a length-n column vector.
	Evaluate(X *mat.Dense) (*mat.VecDense, error)
}

// KernelTemplate is a candidate basis descriptor before it has been bound
// to a dataset. Centering a single template can yield many KernelInstances
// (e.g. one RBF per training point).
type KernelTemplate interface {
	// Center binds the template to the dataset, producing the concrete
	// basis functions it contributes to the candidate set.
	Center(ds Dataset) ([]KernelInstance, error)
}

// GramBuilder is the thin façade over the kernel evaluation subsystem: it
// turns a set of KernelInstances plus an observation matrix into a Gram
// matrix. The default implementation just calls Evaluate per kernel and
// assembles the columns; callers with a faster or blockwise kernel library
// can supply their own.
type GramBuilder interface {
	// Gram builds the n x len(kernels) matrix whose column j is kernels[j]
	// evaluated at every row of X.
	Gram(X *mat.Dense, kernels []KernelInstance) (*mat.Dense, error)
}

// Algorithm selects which sparse-Bayesian trainer Train dispatches to.
type Algorithm string

const (
	// AlgorithmFigueiredo is the EM-style Jeffreys-prior trainer (default).
	AlgorithmFigueiredo Algorithm = "Figueiredo"
	// AlgorithmSequential is the Tipping-Faul fast trainer, recomputing
	// Gram columns in blocks as the active set grows.
	AlgorithmSequential Algorithm = "Sequential"
	// AlgorithmSequentialInMemory is the same algorithm over a single
	// precomputed Gram matrix.
	AlgorithmSequentialInMemory Algorithm = "SequentialInMemory"
)

// LearningResults reports how training terminated.
type LearningResults struct {
	ExitReason string
	ExitValue  float64
}

// Model holds the RVM configuration, the candidate basis, and — once
// Train has run — the learned sparse representation. A Model is mutated
// exclusively by its own Train call and is read-only afterward.
type Model struct {
	kernelTemplates []KernelTemplate
	gram            GramBuilder
	algorithm       Algorithm

	LearningMaxIterations               int
	LearningBetaConvergedTolerance      float64
	LearningBetaRelevantTolerance       float64
	LearningLikelihoodIncreaseThreshold float64
	LearningSequentialBlockSize         int
	LearningText                        bool
	LearningPlot                        bool

	// allInstances is the full centered candidate basis, in declared
	// template order, populated on Train.
	allInstances []KernelInstance

	trained       bool
	converged     bool
	results       LearningResults
	warnings      []string
	sparseBeta    []float64
	sparseKernels []KernelInstance
	beta          []float64
	sigma         *mat.SymDense
}

// Option configures a Model at construction time.
type Option func(*Model)

// WithMaxIterations overrides LearningMaxIterations.
func WithMaxIterations(n int) Option {
	return func(m *Model) { m.LearningMaxIterations = n }
}

// WithBetaConvergedTolerance overrides LearningBetaConvergedTolerance.
func WithBetaConvergedTolerance(tol float64) Option {
	return func(m *Model) { m.LearningBetaConvergedTolerance = tol }
}

// WithBetaRelevantTolerance overrides LearningBetaRelevantTolerance.
func WithBetaRelevantTolerance(tol float64) Option {
	return func(m *Model) { m.LearningBetaRelevantTolerance = tol }
}

// WithLikelihoodIncreaseThreshold overrides LearningLikelihoodIncreaseThreshold.
func WithLikelihoodIncreaseThreshold(tol float64) Option {
	return func(m *Model) { m.LearningLikelihoodIncreaseThreshold = tol }
}

// WithSequentialBlockSize overrides LearningSequentialBlockSize.
func WithSequentialBlockSize(n int) Option {
	return func(m *Model) { m.LearningSequentialBlockSize = n }
}

// WithText toggles diagnostics printed to standard output during Train. The
// only diagnostics printed are the warnings Train records; there is no
// per-iteration progress output.
func WithText(on bool) Option {
	return func(m *Model) { m.LearningText = on }
}

// WithGramBuilder overrides the default dense Gram façade.
func WithGramBuilder(g GramBuilder) Option {
	return func(m *Model) { m.gram = g }
}

// NewModel constructs a Model over the given candidate kernel templates.
// If kernels is empty, the default candidate set (a DC bias plus an RBF
// template scaled by sqrt(D), both centered at Train time) is used.
func NewModel(kernels []KernelTemplate, opts ...Option) *Model {
	m := &Model{
		kernelTemplates:                     kernels,
		gram:                                defaultGramBuilder{},
		algorithm:                           AlgorithmFigueiredo,
		LearningMaxIterations:               1000,
		LearningBetaConvergedTolerance:      1e-3,
		LearningBetaRelevantTolerance:       1e-3,
		LearningLikelihoodIncreaseThreshold: 1e-6,
		LearningSequentialBlockSize:         1000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetAlgorithm selects the training algorithm. It is the only fallible
// setter in the configuration surface, per the error taxonomy's
// InvalidAlgorithm entry, so it is a method rather than an Option.
func (m *Model) SetAlgorithm(a Algorithm) error {
	switch a {
	case AlgorithmFigueiredo, AlgorithmSequential, AlgorithmSequentialInMemory:
		m.algorithm = a
		return nil
	default:
		return ErrInvalidAlgorithm
	}
}

// Algorithm returns the currently selected training algorithm.
func (m *Model) Algorithm() Algorithm { return m.algorithm }

// SparseBeta returns the posterior mean weights, aligned to sorted(A) and
// to SparseKernels. It is nil until Train has run, or if training left the
// active set empty.
func (m *Model) SparseBeta() []float64 { return m.sparseBeta }

// SparseKernels returns the selected basis functions, in the same order as
// SparseBeta.
func (m *Model) SparseKernels() []KernelInstance { return m.sparseKernels }

// Beta returns the full, zero-padded weight vector over every candidate
// basis (length NBasis), for inspection.
func (m *Model) Beta() []float64 { return m.beta }

// Sigma returns the posterior covariance over the active set. It is only
// populated by the Sequential and SequentialInMemory algorithms, which
// maintain it as part of their fast marginal-likelihood bookkeeping; it is
// nil after Figueiredo training.
func (m *Model) Sigma() *mat.SymDense { return m.sigma }

// Converged reports whether training reached a convergence criterion
// rather than the max-iterations cap.
func (m *Model) Converged() bool { return m.converged }

// Results reports the exit reason and associated value from training.
func (m *Model) Results() LearningResults { return m.results }

// Warnings returns the informational warnings accumulated during Train
// (e.g. IllConditionedGram, NoRelevantFeatures).
func (m *Model) Warnings() []string { return m.warnings }

// NBasis returns the total size of the centered candidate basis. It is
// zero until Train has run.
func (m *Model) NBasis() int { return len(m.allInstances) }

func (m *Model) warn(label string) {
	m.warnings = append(m.warnings, label)
	m.logf("warning: %s", label)
}

func (m *Model) logf(format string, args ...interface{}) {
	if !m.LearningText {
		return
	}
	fmt.Printf("rvm: "+format+"\n", args...)
}
