// Package globmatch implements the single glob primitive the rest of the
// engine builds on: literal characters, "?" for one non-separator byte,
// "*" for a single path segment, and "**" for any run of characters,
// '/' included.
// Adjacent "*" runs collapse to "**" before matching.
//
// This is deliberately not github.com/bmatcuk/doublestar: doublestar
// does not collapse runs of "*" into a recursive match, and its richer
// brace/character-class syntax isn't part of the contract the rest of
// this engine (ignore-file patterns, include/exclude globs) relies on.
package globmatch

import "strings"

// Match reports whether text (in its entirety) matches pattern, using
// the glob semantics described in the package doc. Both strings are
// normalized (backslashes to forward slashes) before matching.
func Match(pattern, text string) bool {
	pattern = normalize(pattern)
	text = normalize(text)
	return matchSegments(collapse(pattern), text)
}

func normalize(s string) string {
	return strings.ReplaceAll(s, "\\", "/")
}

// collapse rewrites any run of two or more '*' characters to "**".
func collapse(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	runLen := 0
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '*' {
			runLen++
			continue
		}
		if runLen > 0 {
			b.WriteString(starsFor(runLen))
			runLen = 0
		}
		b.WriteByte(c)
	}
	if runLen > 0 {
		b.WriteString(starsFor(runLen))
	}
	return b.String()
}

func starsFor(runLen int) string {
	if runLen >= 2 {
		return "**"
	}
	return "*"
}

// matchSegments is a recursive-descent matcher over the pattern/text
// byte streams. It backtracks on "*" and "**" by trying every possible
// split point, which is acceptable here since patterns are short
// (exclude/include globs and single ignore-file lines, not arbitrary
// user input at scale).
func matchSegments(pattern, text string) bool {
	return matchAt(pattern, 0, text, 0)
}

func matchAt(pattern string, pi int, text string, ti int) bool {
	for pi < len(pattern) {
		switch pattern[pi] {
		case '*':
			if pi+1 < len(pattern) && pattern[pi+1] == '*' {
				return matchDoubleStar(pattern, pi+2, text, ti)
			}
			return matchSingleStar(pattern, pi+1, text, ti)
		case '?':
			if ti >= len(text) || text[ti] == '/' {
				return false
			}
			pi++
			ti++
		default:
			if ti >= len(text) || text[ti] != pattern[pi] {
				return false
			}
			pi++
			ti++
		}
	}
	return ti == len(text)
}

// matchSingleStar matches zero or more non-'/' characters, then
// continues matching the rest of the pattern from pi.
func matchSingleStar(pattern string, pi int, text string, ti int) bool {
	for {
		if matchAt(pattern, pi, text, ti) {
			return true
		}
		if ti >= len(text) || text[ti] == '/' {
			return false
		}
		ti++
	}
}

// matchDoubleStar matches zero or more characters including '/'.
func matchDoubleStar(pattern string, pi int, text string, ti int) bool {
	for {
		if matchAt(pattern, pi, text, ti) {
			return true
		}
		if ti >= len(text) {
			return false
		}
		ti++
	}
}
