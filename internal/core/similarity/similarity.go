// Package similarity scores how alike two strings are on a 0..100 scale.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agenthands/steward/internal/core/model"
	levenshtein "github.com/texttheater/golang-levenshtein/levenshtein"
)

// Ratio is the insert/delete edit ratio of a and b, scaled to 0..100 and
// rounded half to even. Two empty strings are identical.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 100
	}
	// Substitution costs 2, so this is the insert/delete distance.
	sum := len(ra) + len(rb)
	dist := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	return int(math.RoundToEven(float64(100*(sum-dist)) / float64(sum)))
}

// TokenSortRatio normalizes both strings, sorts their tokens and returns
// the Ratio of the rejoined forms. Distinct strings without a letter or
// digit score 0.
func TokenSortRatio(a, b string) int {
	if a == b {
		return 100
	}
	sa, sb := sortTokens(a), sortTokens(b)
	if sa == "" && sb == "" {
		return 0
	}
	return Ratio(sa, sb)
}

// Blank reports whether s leaves nothing to compare in mode.
func Blank(s string, mode model.Mode) bool {
	if mode == model.ModeTokenSort {
		return Normalize(s) == ""
	}
	return strings.TrimSpace(s) == ""
}

// Score compares a and b in the given mode.
func Score(a, b string, mode model.Mode) int {
	if mode == model.ModeTokenSort {
		return TokenSortRatio(a, b)
	}
	return Ratio(a, b)
}

// Values compares two cells; nulls compare as empty strings.
func Values(a, b model.Value, mode model.Mode) int {
	return Score(a.String(), b.String(), mode)
}

// Mean is the unweighted mean of the per-field scores of a and b. Fields
// blank on both sides are left out; ok is false when every field was.
func Mean(a, b []string, mode model.Mode) (score float64, ok bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	total, counted := 0, 0
	for i := 0; i < n; i++ {
		if Blank(a[i], mode) && Blank(b[i], mode) {
			continue
		}
		total += Score(a[i], b[i], mode)
		counted++
	}
	if counted == 0 {
		return 0, false
	}
	return float64(total) / float64(counted), true
}

// Normalize lower-cases s and turns everything that is not a letter,
// digit or underscore into a space. Letters of every script are kept.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

func sortTokens(s string) string {
	tokens := strings.Fields(Normalize(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
