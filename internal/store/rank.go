package store

import (
	"errors"
	"strings"
)

const rankAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var ErrNoRankSpace = errors.New("no space between ranks")

func rankDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'z':
		return 10 + int(c-'a'), true
	default:
		return 0, false
	}
}

func rankChar(d int) byte {
	if d < 0 {
		d = 0
	}
	if d > 35 {
		d = 35
	}
	return rankAlphabet[d]
}

func normalizeRank(r string) string {
	return strings.ToLower(strings.TrimSpace(r))
}

// RankBetween returns a lexicographic rank strictly between a and b.
// a may be empty (no lower bound) and b may be empty (no upper bound).
//
// Ranks are lowercase base36 strings compared purely lexicographically
// (fractional indexing midpoint).
func RankBetween(a, b string) (string, error) {
	a = normalizeRank(a)
	b = normalizeRank(b)

	if a != "" && b != "" && !(a < b) {
		return "", errors.New("RankBetween requires a < b")
	}

	inside := func(r string) bool {
		if r == "" {
			return false
		}
		if a != "" && !(a < r) {
			return false
		}
		if b != "" && !(r < b) {
			return false
		}
		return true
	}

	prefix := make([]byte, 0, 8)
	for i := 0; i < 256; i++ {
		lo, hi := 0, 35
		if i < len(a) {
			v, ok := rankDigit(a[i])
			if !ok {
				return "", errors.New("invalid rank character in a")
			}
			lo = v
		}
		if i < len(b) {
			v, ok := rankDigit(b[i])
			if !ok {
				return "", errors.New("invalid rank character in b")
			}
			hi = v
		}

		if lo == hi {
			prefix = append(prefix, rankChar(lo))
			continue
		}

		if hi-lo > 1 {
			prefix = append(prefix, rankChar(lo+(hi-lo)/2))
			r := string(prefix)
			if !inside(r) {
				// Upper bound is a prefix extension of the lower (e.g. "y" < "y0").
				return "", ErrNoRankSpace
			}
			return r, nil
		}

		// Adjacent digits: any extension of a is still below b.
		r := a + "0"
		if !inside(r) {
			return "", ErrNoRankSpace
		}
		return r, nil
	}
	return "", errors.New("unable to compute rank between")
}

func RankAfter(a string) (string, error)  { return RankBetween(a, "") }
func RankBefore(b string) (string, error) { return RankBetween("", b) }
func RankInitial() (string, error)        { return RankBetween("", "") }

// RankBetweenUnique returns a rank between lower and upper that is not
// already present in existing (keys normalized). Collisions tighten the
// lower bound and retry.
func RankBetweenUnique(existing map[string]bool, lower, upper string) (string, error) {
	if existing == nil {
		existing = map[string]bool{}
	}
	cur := normalizeRank(lower)
	upper = normalizeRank(upper)
	for i := 0; i < 256; i++ {
		r, err := RankBetween(cur, upper)
		if err != nil {
			return "", err
		}
		r = normalizeRank(r)
		if r == "" {
			return "", errors.New("generated empty rank")
		}
		if !existing[r] {
			return r, nil
		}
		cur = r
	}
	return "", errors.New("unable to find unique rank")
}

// SpreadRanks returns n strictly increasing fixed-width ranks evenly spaced
// over the rank alphabet. Used when a sibling group has to be re-ranked
// because two neighbours left no room between them.
func SpreadRanks(n int) []string {
	if n <= 0 {
		return nil
	}
	width, space := 1, 36
	for space <= n+1 {
		width++
		space *= 36
	}
	step := space / (n + 1)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		v := (i + 1) * step
		buf := make([]byte, width)
		for j := width - 1; j >= 0; j-- {
			buf[j] = rankAlphabet[v%36]
			v /= 36
		}
		out[i] = string(buf)
	}
	return out
}

// CompareRanks orders two thoughts by rank, then id, so siblings always
// have a strict total order even when ranks collide.
func CompareRanks(rankA, idA, rankB, idB string) int {
	ra, rb := normalizeRank(rankA), normalizeRank(rankB)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	case idA < idB:
		return -1
	case idA > idB:
		return 1
	default:
		return 0
	}
}
