package matcher

import (
	"math/rand"
	"reflect"
	"testing"
)

var algorithms = []Algorithm{Naive{}, Bmh{}, BoyerMoore{}}

func TestFindAllOverlapping(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		pattern string
		want    []int
	}{
		{"all same byte", "aaaaaa", "aaa", []int{0, 1, 2, 3}},
		{"no match", "abcdef", "xyz", nil},
		{"pattern equals text", "abc", "abc", []int{0}},
		{"empty pattern", "abc", "", nil},
		{"pattern longer than text", "ab", "abc", nil},
		{"single byte pattern", "banana", "a", []int{1, 3, 5}},
		{"chunk boundary style", "xxabcxxabc", "abc", []int{2, 7}},
	}

	for _, c := range cases {
		for _, alg := range algorithms {
			t.Run(c.name+"/"+algName(alg), func(t *testing.T) {
				got := alg.FindAll([]byte(c.text), []byte(c.pattern))
				if !reflect.DeepEqual(got, c.want) {
					t.Errorf("FindAll(%q, %q) = %v, want %v", c.text, c.pattern, got, c.want)
				}
			})
		}
	}
}

func TestAlgorithmsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	alphabet := []byte("ab")
	for trial := 0; trial < 200; trial++ {
		text := randBytes(rng, alphabet, rng.Intn(40))
		pattern := randBytes(rng, alphabet, rng.Intn(6))

		var results [][]int
		for _, alg := range algorithms {
			results = append(results, alg.FindAll(text, pattern))
		}
		for i := 1; i < len(results); i++ {
			if !reflect.DeepEqual(results[0], results[i]) {
				t.Fatalf("algorithm disagreement on text=%q pattern=%q: %s=%v %s=%v",
					text, pattern, algName(algorithms[0]), results[0], algName(algorithms[i]), results[i])
			}
		}
	}
}

func randBytes(rng *rand.Rand, alphabet []byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return out
}

func algName(a Algorithm) string {
	switch a.(type) {
	case Naive:
		return "naive"
	case Bmh:
		return "bmh"
	case BoyerMoore:
		return "boyer-moore"
	default:
		return "unknown"
	}
}

func TestSelect(t *testing.T) {
	cases := []struct {
		name       string
		explicit   string
		patternLen int
		fileSize   int64
		want       Algorithm
	}{
		{"explicit naive wins", "naive", 20, 1 << 20, Naive{}},
		{"explicit bmh wins", "bmh", 2, 10, Bmh{}},
		{"short pattern auto", "", 3, 1 << 20, Naive{}},
		{"long pattern auto", "", 8, 10, BoyerMoore{}},
		{"medium pattern large file auto", "", 5, 64 * 1024, Bmh{}},
		{"medium pattern small file auto", "", 5, 100, Naive{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Select(c.explicit, c.patternLen, c.fileSize)
			if reflect.TypeOf(got) != reflect.TypeOf(c.want) {
				t.Errorf("Select(%q, %d, %d) = %T, want %T", c.explicit, c.patternLen, c.fileSize, got, c.want)
			}
		})
	}
}
