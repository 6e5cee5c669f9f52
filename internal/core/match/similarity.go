package match

// Ratio computes a normalized similarity between two strings as
// 2*M/T, where M is the total length of the longest matching blocks
// (found recursively on both sides of each block) and T is the
// combined length. Identical strings score 1.0, disjoint strings 0.0.
// Comparison is rune-wise and case-sensitive; callers lowercase first.
func Ratio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}

	m := &sequenceMatcher{a: ar, b: br, b2j: make(map[rune][]int, len(br))}
	for j, r := range br {
		m.b2j[r] = append(m.b2j[r], j)
	}

	matches := 0
	type span struct{ alo, ahi, blo, bhi int }
	stack := []span{{0, len(ar), 0, len(br)}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i, j, k := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matches += k
		stack = append(stack,
			span{s.alo, i, s.blo, j},
			span{i + k, s.ahi, j + k, s.bhi},
		)
	}

	return 2 * float64(matches) / float64(total)
}

type sequenceMatcher struct {
	a, b []rune
	b2j  map[rune][]int
}

// longestMatch finds the longest block of equal runes within
// a[alo:ahi] and b[blo:bhi], preferring the earliest position in a,
// then in b, on ties.
func (m *sequenceMatcher) longestMatch(alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}

	return besti, bestj, bestsize
}
