package selection

import (
	"fmt"
	"sort"

	"thoughtline/internal/model"
	"thoughtline/internal/store"
)

// FilterMode picks which members of a sorted selection a batch command runs on.
type FilterMode string

const (
	FilterAll            FilterMode = "all"
	FilterFirstSibling   FilterMode = "first-sibling"
	FilterLastSibling    FilterMode = "last-sibling"
	FilterPreferAncestor FilterMode = "prefer-ancestor"
)

func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterFirstSibling, FilterLastSibling, FilterPreferAncestor:
		return FilterMode(s), nil
	default:
		return "", fmt.Errorf("unknown filter mode: %s", s)
	}
}

// ComparePaths orders two paths by document position: ranks are compared at
// each shared depth and the first mismatch decides; a prefix sorts before
// its extensions.
func ComparePaths(a, b model.Path, rank func(id string) string) int {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	for i := 0; i < n; i++ {
		x, y := a.At(i), b.At(i)
		if x == y {
			continue
		}
		return store.CompareRanks(rank(x), x, rank(y), y)
	}
	switch {
	case a.Len() < b.Len():
		return -1
	case a.Len() > b.Len():
		return 1
	default:
		return 0
	}
}

// SortDocumentOrder returns paths sorted into document order. The input is
// not modified.
func SortDocumentOrder(paths []model.Path, rank func(id string) string) []model.Path {
	out := append([]model.Path(nil), paths...)
	sort.SliceStable(out, func(i, j int) bool {
		return ComparePaths(out[i], out[j], rank) < 0
	})
	return out
}

// Filter applies mode to a selection already in document order.
func Filter(sorted []model.Path, mode FilterMode) []model.Path {
	switch mode {
	case FilterFirstSibling:
		seen := map[string]bool{}
		var out []model.Path
		for _, p := range sorted {
			k := p.Parent().Hash()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, p)
		}
		return out
	case FilterLastSibling:
		last := map[string]int{}
		for i, p := range sorted {
			last[p.Parent().Hash()] = i
		}
		var out []model.Path
		for i, p := range sorted {
			if last[p.Parent().Hash()] == i {
				out = append(out, p)
			}
		}
		return out
	case FilterPreferAncestor:
		seen := map[string]bool{}
		var out []model.Path
		for _, p := range sorted {
			seen[p.Hash()] = true
			if parent := p.Parent(); !parent.IsNull() && seen[parent.Hash()] {
				continue
			}
			out = append(out, p)
		}
		return out
	default:
		return append([]model.Path(nil), sorted...)
	}
}

// Reverse returns paths in reverse order.
func Reverse(paths []model.Path) []model.Path {
	out := make([]model.Path, len(paths))
	for i, p := range paths {
		out[len(paths)-1-i] = p
	}
	return out
}
