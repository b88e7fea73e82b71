// Package cluster merges near-duplicate person names that the golden
// reference could not resolve. Names are blocked by first/last token and a
// size band, then compared pairwise with a token-set ratio.
package cluster

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"uninames/internal/normalize"
)

// Options carries the merge thresholds (0-1 scale).
type Options struct {
	AutoMergeThreshold float64 // at or above: merge
	UnsureThreshold    float64 // at or above (but below auto): flag for review
	MaxRows            int     // above this, clustering is skipped (0 = no cap)
}

// Result maps merged-away names to their survivors and flags names whose
// best pairing landed in the unsure band.
type Result struct {
	Mapping map[string]string
	Unsure  map[string]bool
	Skipped bool // row cap exceeded
}

// BlockKey buckets token lists so only plausible pairs are compared.
type BlockKey struct {
	First string
	Last  string
	Band  int
}

// Key derives the block for a token list: first token, last token, and a
// coarse length band (<=2, <=4, larger).
func Key(tokens []string) BlockKey {
	if len(tokens) == 0 {
		return BlockKey{}
	}
	band := 0
	switch {
	case len(tokens) <= 2:
		band = 0
	case len(tokens) <= 4:
		band = 1
	default:
		band = 2
	}
	return BlockKey{First: tokens[0], Last: tokens[len(tokens)-1], Band: band}
}

type member struct {
	name   string
	tokens []string
	family string
}

// Merge clusters the given standard names. Within a block, pairs sharing a
// family token merge when their token-set ratio reaches the auto threshold;
// the longer (or more token-diverse) name survives. Pairs in the unsure band
// are flagged instead.
func Merge(names []string, opts Options) Result {
	res := Result{
		Mapping: make(map[string]string),
		Unsure:  make(map[string]bool),
	}
	if opts.MaxRows > 0 && len(names) > opts.MaxRows {
		res.Skipped = true
		return res
	}

	blocks := make(map[BlockKey][]member)
	seen := make(map[string]bool)
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		toks := normalize.Tokens(name, true)
		if len(toks) == 0 {
			continue
		}
		m := member{name: name, tokens: toks, family: familyOf(name)}
		blocks[Key(toks)] = append(blocks[Key(toks)], m)
	}

	// Deterministic block order.
	keys := make([]BlockKey, 0, len(blocks))
	for k := range blocks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].First != keys[b].First {
			return keys[a].First < keys[b].First
		}
		if keys[a].Last != keys[b].Last {
			return keys[a].Last < keys[b].Last
		}
		return keys[a].Band < keys[b].Band
	})

	for _, k := range keys {
		grp := blocks[k]
		sort.Slice(grp, func(a, b int) bool { return grp[a].name < grp[b].name })
		mergeBlock(grp, opts, &res)
	}

	flattenMapping(res.Mapping)
	return res
}

func mergeBlock(grp []member, opts Options, res *Result) {
	for i := 0; i < len(grp); i++ {
		for j := i + 1; j < len(grp); j++ {
			a, b := grp[i], grp[j]
			if a.family == "" || a.family != b.family {
				continue
			}

			sim := float64(fuzzy.TokenSetRatio(strings.Join(a.tokens, " "), strings.Join(b.tokens, " "))) / 100.0
			switch {
			case sim >= opts.AutoMergeThreshold:
				keep, drop := choose(a, b)
				res.Mapping[drop.name] = keep.name
			case sim >= opts.UnsureThreshold:
				res.Unsure[a.name] = true
				res.Unsure[b.name] = true
			}
		}
	}
}

// choose prefers the longer token list; ties go to the name with more
// unique tokens, then lexicographically first.
func choose(a, b member) (keep, drop member) {
	switch {
	case len(a.tokens) > len(b.tokens):
		return a, b
	case len(b.tokens) > len(a.tokens):
		return b, a
	}
	ua, ub := uniqueCount(a.tokens), uniqueCount(b.tokens)
	if ua >= ub {
		return a, b
	}
	return b, a
}

func uniqueCount(tokens []string) int {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return len(set)
}

func familyOf(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}

// flattenMapping resolves chains (a->b, b->c) so every entry points at its
// final survivor.
func flattenMapping(m map[string]string) {
	for from := range m {
		to := m[from]
		for hops := 0; hops < len(m); hops++ {
			next, ok := m[to]
			if !ok || next == to {
				break
			}
			to = next
		}
		m[from] = to
	}
}
