package rvm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// scoreBlockSize bounds how many query rows are scored per Gram evaluation,
// mirroring the teacher's fixed-size incremental construction of forecast
// matrices rather than materializing one Gram block for the whole query set.
const scoreBlockSize = 1000

// Predict scores every row of X under the trained sparse representation,
// returning P(positive class) via the probit link (stdNormal.CDF). This is
// the standard normal CDF, not the logistic sigmoid that penalizedIRLS uses
// internally to fit the posterior — an intentional mismatch between the
// training and scoring link inherited from the original design. It requires
// a prior Train call. If training left the active set empty, every score is
// NaN.
func (m *Model) Predict(X *mat.Dense) ([]float64, error) {
	if !m.trained {
		return nil, fmt.Errorf("predict: %w", errNotTrained)
	}

	n, _ := X.Dims()
	scores := make([]float64, n)

	if len(m.sparseKernels) == 0 {
		for i := range scores {
			scores[i] = math.NaN()
		}
		return scores, nil
	}

	for start := 0; start < n; start += scoreBlockSize {
		end := start + scoreBlockSize
		if end > n {
			end = n
		}
		block := mat.DenseCopyOf(X.Slice(start, end, 0, X.RawMatrix().Cols))

		gamma, err := m.gram.Gram(block, m.sparseKernels)
		if err != nil {
			return nil, fmt.Errorf("predict: gram: %w", err)
		}
		rows, _ := gamma.Dims()
		for i := 0; i < rows; i++ {
			s := 0.0
			for j, beta := range m.sparseBeta {
				s += gamma.At(i, j) * beta
			}
			scores[start+i] = stdNormal.CDF(s)
		}
	}
	return scores, nil
}
