package rvm

import "gonum.org/v1/gonum/mat"

// denseDataset is a minimal in-memory Dataset used across the test files.
// Dataset has no shipped production implementation — it is an external
// collaborator per the package's design — so the tests provide their own.
type denseDataset struct {
	x   *mat.Dense
	yPM []float64
}

func newDenseDataset(rows [][]float64, yPM []float64) *denseDataset {
	n := len(rows)
	d := 0
	if n > 0 {
		d = len(rows[0])
	}
	flat := make([]float64, 0, n*d)
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return &denseDataset{x: mat.NewDense(n, d, flat), yPM: append([]float64(nil), yPM...)}
}

func (d *denseDataset) NObservations() int { r, _ := d.x.Dims(); return r }
func (d *denseDataset) NFeatures() int     { _, c := d.x.Dims(); return c }

func (d *denseDataset) Observations(indices []int) (*mat.Dense, error) {
	if indices == nil {
		return d.x, nil
	}
	_, c := d.x.Dims()
	out := mat.NewDense(len(indices), c, nil)
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			out.Set(i, j, d.x.At(idx, j))
		}
	}
	return out, nil
}

func (d *denseDataset) TargetsBinary() (*mat.Dense, error) {
	out := mat.NewDense(len(d.yPM), 2, nil)
	for i, y := range d.yPM {
		if y > 0 {
			out.Set(i, 1, 1)
			out.Set(i, 0, 0)
		} else {
			out.Set(i, 1, 0)
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

func (d *denseDataset) IsBinary() bool { return true }

// nonBinaryDataset always reports IsBinary false, for exercising the error
// path in Train without constructing a real multi-class dataset.
type nonBinaryDataset struct{ *denseDataset }

func (nonBinaryDataset) IsBinary() bool { return false }
