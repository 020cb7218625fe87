package engine

import "iter"

// Combinations yields every k-element combination of names in lexicographic
// index order. Each yielded slice is freshly allocated. Calling the returned
// sequence again starts over.
func Combinations(names []string, k int) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		n := len(names)
		if k <= 0 || k > n {
			return
		}

		idx := make([]int, k)
		for i := range idx {
			idx[i] = i
		}

		for {
			combo := make([]string, k)
			for i, j := range idx {
				combo[i] = names[j]
			}
			if !yield(combo) {
				return
			}

			// advance the rightmost index that still has room
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
}

// Binomial returns C(n, k), the number of combinations Combinations yields.
func Binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	k = min(k, n-k)
	result := 1
	for i := 1; i <= k; i++ {
		result = result * (n - k + i) / i
	}
	return result
}
