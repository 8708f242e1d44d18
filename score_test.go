package rvm

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestPredictBeforeTrainReturnsError(t *testing.T) {
	m := NewModel(nil)
	_, err := m.Predict(mat.NewDense(1, 2, []float64{0, 0}))
	if err == nil {
		t.Fatalf("Predict before Train should return an error")
	}
}

func TestPredictEmptySparseRepresentationIsNaN(t *testing.T) {
	ds, _ := separableClusters()
	m := NewModel(nil)
	if err := m.Train(ds); err != nil {
		t.Fatalf("Train: %v", err)
	}
	m.sparseKernels = nil
	m.sparseBeta = nil

	scores, err := m.Predict(mat.NewDense(1, 2, []float64{0, 0}))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !math.IsNaN(scores[0]) {
		t.Errorf("Predict with empty sparse representation = %v, want NaN", scores[0])
	}
}

func TestPredictScoresAreProbabilities(t *testing.T) {
	ds, _ := separableClusters()
	m := NewModel(nil)
	if err := m.Train(ds); err != nil {
		t.Fatalf("Train: %v", err)
	}
	Xq := mat.NewDense(3, 2, []float64{2, 2, -2, -2, 0, 0})
	scores, err := m.Predict(Xq)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i, s := range scores {
		if s < 0 || s > 1 {
			t.Errorf("score[%d] = %v, not a probability", i, s)
		}
	}
}
