package workspace

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"

	"github.com/standardbeagle/plsc/internal/types"
)

// matchTier ranks how a candidate symbol matched the query. Lower sorts
// first: exact beats prefix beats fuzzy.
type matchTier int

const (
	tierExact matchTier = iota
	tierPrefix
	tierFuzzy
	tierNoMatch
)

// fuzzyThreshold is the minimum Jaro-Winkler similarity (after stemming)
// for a candidate to qualify for the fuzzy subsequence tier.
const fuzzyThreshold = 0.72

// FindSymbols returns every workspace symbol matching queryPrefix,
// ordered exact case-insensitive match first, then case-insensitive
// prefix match, then fuzzy subsequence match; ties are broken by
// lexicographic symbol name, then file URI. While the coordinator is
// Uninitialized this returns an empty slice rather than an
// IndexStateMismatch error.
func (c *Coordinator) FindSymbols(queryPrefix string) []types.WorkspaceSymbol {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.index.State.Kind == types.IndexUninitialized {
		return nil
	}
	if queryPrefix == "" {
		return nil
	}

	query := strings.ToLower(queryPrefix)
	queryStem := porter2.Stem(query)

	type scored struct {
		sym  types.WorkspaceSymbol
		tier matchTier
	}
	var candidates []scored

	for uri, syms := range c.index.Files {
		for _, sym := range syms {
			tier := classify(sym.Name, query, queryStem)
			if tier == tierNoMatch {
				continue
			}
			candidates = append(candidates, scored{
				sym:  c.toWorkspaceSymbol(uri, sym),
				tier: tier,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].tier != candidates[j].tier {
			return candidates[i].tier < candidates[j].tier
		}
		if candidates[i].sym.Symbol.Name != candidates[j].sym.Symbol.Name {
			return candidates[i].sym.Symbol.Name < candidates[j].sym.Symbol.Name
		}
		return candidates[i].sym.URI < candidates[j].sym.URI
	})

	out := make([]types.WorkspaceSymbol, len(candidates))
	for i, cand := range candidates {
		out[i] = cand.sym
	}
	return out
}

// classify scores one candidate name against the query, returning the
// best tier it qualifies for (or tierNoMatch).
func classify(name, query, queryStem string) matchTier {
	lowerName := strings.ToLower(name)
	if lowerName == query {
		return tierExact
	}
	if strings.HasPrefix(lowerName, query) {
		return tierPrefix
	}
	if isSubsequence(query, lowerName) {
		return tierFuzzy
	}
	// Stemmed fuzzy similarity catches near-misses a literal subsequence
	// test would reject outright, e.g. "parser" matching "parsed".
	similarity, err := edlib.StringsSimilarity(queryStem, porter2.Stem(lowerName), edlib.JaroWinkler)
	if err == nil && float64(similarity) >= fuzzyThreshold {
		return tierFuzzy
	}
	return tierNoMatch
}

// isSubsequence reports whether every rune of needle appears in
// haystack in order, not necessarily contiguously.
func isSubsequence(needle, haystack string) bool {
	if needle == "" {
		return false
	}
	i := 0
	nr := []rune(needle)
	for _, r := range haystack {
		if i < len(nr) && r == nr[i] {
			i++
		}
		if i == len(nr) {
			return true
		}
	}
	return false
}
