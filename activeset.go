package rvm

// activeSet is the canonical representation of the Sequential trainer's
// relevant-basis set A: a sorted index list, with a boolean mask over all
// bases kept alongside it for constant-time membership tests. add and
// remove update both together. No insertion-ordered list is kept.
type activeSet struct {
	nBasis int
	mask   []bool
	sorted []int // always kept sorted
}

func newActiveSet(nBasis int) *activeSet {
	return &activeSet{nBasis: nBasis, mask: make([]bool, nBasis)}
}

func (a *activeSet) contains(j int) bool { return a.mask[j] }

func (a *activeSet) size() int { return len(a.sorted) }

// sortedIndices returns the current active indices in ascending order —
// the order that indexes the compact posterior mean and covariance.
func (a *activeSet) sortedIndices() []int { return a.sorted }

// rank returns the position j would occupy (or does occupy) within
// sortedIndices: the count of active indices strictly less than j.
func (a *activeSet) rank(j int) int {
	r := 0
	for _, idx := range a.sorted {
		if idx < j {
			r++
		}
	}
	return r
}

// add inserts j into the active set and returns its rank (the compact
// insertion position).
func (a *activeSet) add(j int) int {
	pos := a.rank(j)
	a.mask[j] = true
	a.sorted = append(a.sorted, 0)
	copy(a.sorted[pos+1:], a.sorted[pos:])
	a.sorted[pos] = j
	return pos
}

// remove deletes j from the active set and returns the compact position it
// occupied.
func (a *activeSet) remove(j int) int {
	pos := a.rank(j)
	a.mask[j] = false
	a.sorted = append(a.sorted[:pos], a.sorted[pos+1:]...)
	return pos
}

