package rvm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// defaultGramBuilder is the in-scope Gram adapter: a thin façade that
// assembles a Gram matrix by evaluating each kernel instance in turn. It is
// the fallback used when no WithGramBuilder option overrides it.
type defaultGramBuilder struct{}

func (defaultGramBuilder) Gram(X *mat.Dense, kernels []KernelInstance) (*mat.Dense, error) {
	n, _ := X.Dims()
	out := mat.NewDense(n, len(kernels), nil)
	for j, k := range kernels {
		col, err := k.Evaluate(X)
		if err != nil {
			return nil, fmt.Errorf("gram: evaluate basis %d: %w", j, err)
		}
		if col.Len() != n {
			return nil, fmt.Errorf("gram: basis %d returned %d values, want %d", j, col.Len(), n)
		}
		for i := 0; i < n; i++ {
			out.Set(i, j, col.AtVec(i))
		}
	}
	return out, nil
}

// biasTemplate is the default "DC bias" candidate: a single constant-1
// basis function, contributing the model's intercept term.
type biasTemplate struct{}

type biasInstance struct{}

func (biasTemplate) Center(ds Dataset) ([]KernelInstance, error) {
	return []KernelInstance{biasInstance{}}, nil
}

func (biasInstance) Evaluate(X *mat.Dense) (*mat.VecDense, error) {
	n, _ := X.Dims()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetVec(i, 1.0)
	}
	return out, nil
}

// rbfTemplate is the default RBF candidate: one Gaussian basis function
// centered at every training observation, with a shared bandwidth scaled
// by sqrt(D) as the options table in the specification prescribes.
type rbfTemplate struct {
	// WidthScale multiplies sqrt(D) to produce the kernel bandwidth. A
	// zero value means "use sqrt(D) unscaled".
	WidthScale float64
}

type rbfInstance struct {
	center []float64
	gamma  float64 // precomputed 1 / (2*sigma^2)
}

func (t rbfTemplate) Center(ds Dataset) ([]KernelInstance, error) {
	n, d := ds.NObservations(), ds.NFeatures()
	X, err := ds.Observations(nil)
	if err != nil {
		return nil, fmt.Errorf("rbf: observations: %w", err)
	}
	scale := t.WidthScale
	if scale <= 0 {
		scale = 1
	}
	sigma := scale * math.Sqrt(float64(d))
	gamma := 1.0 / (2 * sigma * sigma)

	instances := make([]KernelInstance, n)
	for i := 0; i < n; i++ {
		center := make([]float64, d)
		for j := 0; j < d; j++ {
			center[j] = X.At(i, j)
		}
		instances[i] = rbfInstance{center: center, gamma: gamma}
	}
	return instances, nil
}

func (k rbfInstance) Evaluate(X *mat.Dense) (*mat.VecDense, error) {
	n, d := X.Dims()
	if d != len(k.center) {
		return nil, fmt.Errorf("rbf: dimension mismatch: have %d, want %d", d, len(k.center))
	}
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		sq := 0.0
		for j := 0; j < d; j++ {
			diff := X.At(i, j) - k.center[j]
			sq += diff * diff
		}
		out.SetVec(i, math.Exp(-k.gamma*sq))
	}
	return out, nil
}

// defaultKernelTemplates returns the {DC bias, RBF scaled by sqrt(D)}
// candidate set used when NewModel is given no templates of its own.
func defaultKernelTemplates() []KernelTemplate {
	return []KernelTemplate{biasTemplate{}, rbfTemplate{WidthScale: 1}}
}

// centerAll maps every candidate kernel template to its concrete,
// dataset-bound instances and concatenates them in declared order, the
// ordering used to index every per-basis vector from here on.
func centerAll(templates []KernelTemplate, ds Dataset) ([]KernelInstance, error) {
	if len(templates) == 0 {
		templates = defaultKernelTemplates()
	}
	var all []KernelInstance
	for i, t := range templates {
		inst, err := t.Center(ds)
		if err != nil {
			return nil, fmt.Errorf("center template %d: %w", i, err)
		}
		all = append(all, inst...)
	}
	return all, nil
}
