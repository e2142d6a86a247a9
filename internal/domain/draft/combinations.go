package draft

// forEachCombination calls fn with every k-subset of {0..n-1} as ascending
// indices, in lexicographic order, until fn returns false. The slice passed
// to fn is reused between calls.
func forEachCombination(n, k int, fn func(idx []int) bool) {
	if k < 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if !fn(idx) {
			return
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// split returns the members of pool selected by idx and the rest, both in
// pool order.
func split[T any](pool []T, idx []int) (picked, rest []T) {
	picked = make([]T, 0, len(idx))
	rest = make([]T, 0, len(pool)-len(idx))
	j := 0
	for i, v := range pool {
		if j < len(idx) && idx[j] == i {
			picked = append(picked, v)
			j++
			continue
		}
		rest = append(rest, v)
	}
	return picked, rest
}
