package routing

// permutationIterator enumerates all permutations of 0..n-1 using an explicit
// counter stack (iterative Heap's algorithm). The exhaustive search keeps n
// small (at most the brute-force threshold), but an iterator avoids both deep
// recursion and materializing every permutation up front.
type permutationIterator struct {
	perm    []int
	counter []int
	depth   int
	first   bool
	done    bool
}

func newPermutationIterator(n int) *permutationIterator {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return &permutationIterator{
		perm:    perm,
		counter: make([]int, n),
		first:   true,
		done:    n == 0,
	}
}

// Next advances to the next permutation. The returned slice is reused across
// calls; callers must copy it if they keep it.
func (it *permutationIterator) Next() ([]int, bool) {
	if it.done {
		return nil, false
	}
	if it.first {
		it.first = false
		return it.perm, true
	}

	n := len(it.perm)
	for it.depth < n {
		if it.counter[it.depth] < it.depth {
			if it.depth%2 == 0 {
				it.perm[0], it.perm[it.depth] = it.perm[it.depth], it.perm[0]
			} else {
				it.perm[it.counter[it.depth]], it.perm[it.depth] = it.perm[it.depth], it.perm[it.counter[it.depth]]
			}
			it.counter[it.depth]++
			it.depth = 0
			return it.perm, true
		}
		it.counter[it.depth] = 0
		it.depth++
	}

	it.done = true
	return nil, false
}
