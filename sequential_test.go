package rvm

import "testing"

// xorClusters builds a small XOR-like dataset: (+1,+1) and (-1,-1) are one
// class, (+1,-1) and (-1,+1) the other. No linear separator exists; a
// unimodal RBF basis per point is needed, which is what exercises the
// Sequential trainer's Add/Remove/Modify search.
func xorClusters() *denseDataset {
	offsets := []float64{-0.1, 0.1}
	var rows [][]float64
	var labels []float64
	for _, ox := range offsets {
		for _, oy := range offsets {
			rows = append(rows, []float64{1 + ox, 1 + oy})
			labels = append(labels, 1)
			rows = append(rows, []float64{-1 + ox, -1 + oy})
			labels = append(labels, 1)
			rows = append(rows, []float64{1 + ox, -1 + oy})
			labels = append(labels, -1)
			rows = append(rows, []float64{-1 + ox, 1 + oy})
			labels = append(labels, -1)
		}
	}
	return newDenseDataset(rows, labels)
}

func TestTrainSequentialStreaming(t *testing.T) {
	ds := xorClusters()
	m := NewModel(nil, WithMaxIterations(200), WithSequentialBlockSize(4))
	if err := m.SetAlgorithm(AlgorithmSequential); err != nil {
		t.Fatalf("SetAlgorithm: %v", err)
	}
	if err := m.Train(ds); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(m.SparseKernels()) == 0 {
		t.Fatalf("SparseKernels() empty after Sequential training")
	}
	if m.Sigma() == nil {
		t.Errorf("Sigma() is nil, want the Sequential trainer's posterior covariance")
	}
	if m.Sigma().SymmetricDim() != len(m.SparseBeta()) {
		t.Errorf("Sigma() dim = %d, want %d to match SparseBeta()", m.Sigma().SymmetricDim(), len(m.SparseBeta()))
	}
}

func TestTrainSequentialInMemoryMatchesShape(t *testing.T) {
	ds := xorClusters()
	m := NewModel(nil, WithMaxIterations(200))
	if err := m.SetAlgorithm(AlgorithmSequentialInMemory); err != nil {
		t.Fatalf("SetAlgorithm: %v", err)
	}
	if err := m.Train(ds); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(m.SparseKernels()) == 0 {
		t.Fatalf("SparseKernels() empty after SequentialInMemory training")
	}
	if len(m.Beta()) != m.NBasis() {
		t.Errorf("Beta() length = %d, want %d", len(m.Beta()), m.NBasis())
	}
}

func TestTrainSequentialMaxIterationsStillProducesValidResult(t *testing.T) {
	ds := xorClusters()
	m := NewModel(nil, WithMaxIterations(1))
	if err := m.SetAlgorithm(AlgorithmSequential); err != nil {
		t.Fatalf("SetAlgorithm: %v", err)
	}
	if err := m.Train(ds); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if m.Converged() {
		t.Errorf("Converged() = true with a 1-iteration cap, want false")
	}
	found := false
	for _, w := range m.Warnings() {
		if w == warnNonConvergence {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings() = %v, want %q", m.Warnings(), warnNonConvergence)
	}
	if len(m.SparseKernels()) == 0 {
		t.Errorf("SparseKernels() empty despite hitting the iteration cap, want a valid partial result")
	}
}
