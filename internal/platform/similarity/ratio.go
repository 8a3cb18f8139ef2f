// Package similarity implements the sequence-matching ratio used by the
// fuzzy name matcher. The algorithm mirrors the Ratcliff/Obershelp measure
// (2*M/T over recursively-found longest matching blocks) so the historical
// acceptance threshold keeps its meaning.
package similarity

// DefaultThreshold is the fuzzy-match acceptance cutoff. It is a policy
// choice, not a law of nature; callers take it from config.
const DefaultThreshold = 0.85

// Ratio reports how alike a and b are, in [0, 1].
func Ratio(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1
	}

	b2j := make(map[rune][]int, len(br))
	for j, r := range br {
		b2j[r] = append(b2j[r], j)
	}

	matched := 0
	type span struct{ alo, ahi, blo, bhi int }
	stack := []span{{0, len(ar), 0, len(br)}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i, j, size := longestMatch(ar, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if size == 0 {
			continue
		}
		matched += size
		stack = append(stack,
			span{s.alo, i, s.blo, j},
			span{i + size, s.ahi, j + size, s.bhi},
		)
	}

	return 2 * float64(matched) / float64(total)
}

func longestMatch(ar []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for _, j := range b2j[ar[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestsize
}
