// Package matcher implements the literal byte-pattern search family
// described in spec.md §4.3: Naive, Boyer-Moore-Horspool, and full
// Boyer-Moore. All three report every occurrence including overlaps
// (the scan cursor always advances by exactly one past a hit) and agree
// byte-for-byte on the set of offsets they return (property P1).
package matcher

// Algorithm finds all occurrences of needle in haystack, including
// overlapping ones, returning ascending byte offsets.
type Algorithm interface {
	FindAll(haystack, needle []byte) []int
}

// Naive is brute-force comparison at every offset.
type Naive struct{}

func (Naive) FindAll(haystack, needle []byte) []int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return nil
	}
	var out []int
	last := len(haystack) - len(needle)
	for i := 0; i <= last; i++ {
		if matchesAt(haystack, needle, i) {
			out = append(out, i)
		}
	}
	return out
}

func matchesAt(haystack, needle []byte, at int) bool {
	for j := 0; j < len(needle); j++ {
		if haystack[at+j] != needle[j] {
			return false
		}
	}
	return true
}

// Bmh is Boyer-Moore-Horspool: a single 256-entry bad-character shift
// table keyed on the byte at the end of the current window. Shifts are
// never smaller than 1, so overlapping matches are still discovered one
// offset at a time following each hit.
type Bmh struct{}

func (Bmh) FindAll(haystack, needle []byte) []int {
	n, m := len(haystack), len(needle)
	if m == 0 || m > n {
		return nil
	}

	var shift [256]int
	for i := range shift {
		shift[i] = m
	}
	for i := 0; i < m-1; i++ {
		shift[needle[i]] = m - 1 - i
	}

	var out []int
	i := 0
	for i <= n-m {
		if matchesAt(haystack, needle, i) {
			out = append(out, i)
			i++
			continue
		}
		lastByte := haystack[i+m-1]
		s := shift[lastByte]
		if s < 1 {
			s = 1
		}
		i += s
	}
	return out
}

// BoyerMoore is the full bad-character + good-suffix algorithm. After
// each reported hit the cursor advances by exactly one position so
// overlapping matches are preserved, matching spec.md's contract.
type BoyerMoore struct{}

func (BoyerMoore) FindAll(haystack, needle []byte) []int {
	n, m := len(haystack), len(needle)
	if m == 0 || m > n {
		return nil
	}

	badChar := buildBadChar(needle)
	goodSuffix := buildGoodSuffix(needle)

	var out []int
	i := 0
	for i <= n-m {
		j := m - 1
		for j >= 0 && needle[j] == haystack[i+j] {
			j--
		}
		if j < 0 {
			out = append(out, i)
			i++
			continue
		}

		badCharShift := j - badChar[haystack[i+j]]
		if badCharShift < 1 {
			badCharShift = 1
		}
		goodSuffixShift := goodSuffix[j]
		shift := badCharShift
		if goodSuffixShift > shift {
			shift = goodSuffixShift
		}
		i += shift
	}
	return out
}

// buildBadChar returns, for each byte value, the last index in needle at
// which it occurs, or -1 if absent.
func buildBadChar(needle []byte) [256]int {
	var table [256]int
	for i := range table {
		table[i] = -1
	}
	for i, c := range needle {
		table[c] = i
	}
	return table
}

// buildGoodSuffix returns, for each mismatch position j (the last
// matched suffix starts at j+1), how far the window should shift so
// that the matched suffix realigns with a prior occurrence of itself
// (or a matching prefix), per the classical good-suffix preprocessing.
func buildGoodSuffix(needle []byte) []int {
	m := len(needle)
	shift := make([]int, m+1)
	bpos := make([]int, m+1)

	i, j := m, m+1
	bpos[i] = j
	for i > 0 {
		for j <= m && needle[i-1] != needle[j-1] {
			if shift[j] == 0 {
				shift[j] = j - i
			}
			j = bpos[j]
		}
		i--
		j--
		bpos[i] = j
	}

	j = bpos[0]
	for i := 0; i <= m; i++ {
		if shift[i] == 0 {
			shift[i] = j
		}
		if i == j {
			j = bpos[j]
		}
	}

	// shift[k] (1<=k<=m) is the classical good-suffix shift applied when
	// the matched suffix starts at index k; BoyerMoore.FindAll calls
	// this table with a 0-based mismatch position j, i.e. a matched
	// suffix starting at j+1, so out[j] = shift[j+1].
	out := make([]int, m)
	for j := 0; j < m; j++ {
		out[j] = shift[j+1]
	}
	return out
}

// Select returns the matcher appropriate for mode, or the adaptive
// choice from spec.md §4.3 when mode is Auto.
func Select(explicit string, patternLen int, fileSize int64) Algorithm {
	switch explicit {
	case "naive":
		return Naive{}
	case "bmh":
		return Bmh{}
	case "boyer-moore":
		return BoyerMoore{}
	}
	switch {
	case patternLen < 4:
		return Naive{}
	case patternLen >= 8:
		return BoyerMoore{}
	case fileSize >= 64*1024:
		return Bmh{}
	default:
		return Naive{}
	}
}
