// Package golden manages the golden reference: the authoritative map from
// raw BI aliases to standard provider names. It supports workbook/CSV
// loading, tiered matching, interactive search, and learning from reviewed
// output.
package golden

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/sync/errgroup"

	"uninames/internal/normalize"
	"uninames/internal/tabular"
)

// Record is one golden reference entry.
type Record struct {
	BIName       string
	StandardName string
	Specialty    string
	AliasClean   string
}

// Reference is an in-memory golden reference with lookup indexes.
type Reference struct {
	records    []Record
	byBIName   map[string]int
	byAlias    map[string]int
	numWorkers int
}

// Match is a resolved golden match.
type Match struct {
	BIName       string
	StandardName string
	Specialty    string
	Score        float64
}

// New builds a Reference from records. Later records win per clean alias,
// mirroring the learn semantics.
func New(records []Record) *Reference {
	r := &Reference{
		byBIName:   make(map[string]int),
		byAlias:    make(map[string]int),
		numWorkers: runtime.NumCPU(),
	}
	seen := make(map[string]int)
	for _, rec := range records {
		if rec.BIName == "" || rec.StandardName == "" {
			continue
		}
		if rec.AliasClean == "" {
			rec.AliasClean = normalize.CleanName(rec.BIName, true)
		}
		if i, dup := seen[rec.AliasClean]; dup {
			r.records[i] = rec
			continue
		}
		seen[rec.AliasClean] = len(r.records)
		r.records = append(r.records, rec)
	}
	for i, rec := range r.records {
		r.byBIName[rec.BIName] = i
		r.byAlias[rec.AliasClean] = i
	}
	return r
}

// Load reads a golden reference workbook or CSV. Header spellings are
// matched loosely; "BI Name" and "Standard_Name" are required.
func Load(path string) (*Reference, error) {
	t, err := tabular.Read(path)
	if err != nil {
		return nil, err
	}
	records, err := recordsFromTable(t)
	if err != nil {
		return nil, fmt.Errorf("golden: %s: %w", path, err)
	}
	return New(records), nil
}

func recordsFromTable(t *tabular.Table) ([]Record, error) {
	biCol, biOK := findColumn(t, "bi name", "bi names")
	stdCol, stdOK := findColumn(t, "standard name", "standard names")
	if !biOK || !stdOK {
		return nil, fmt.Errorf("expected columns 'BI Name' and 'Standard_Name'")
	}
	specCol, specOK := findColumn(t, "original specialty", "specialty", "speciality")

	records := make([]Record, 0, len(t.Rows))
	for i := range t.Rows {
		rec := Record{
			BIName:       strings.TrimSpace(t.Cell(i, biCol)),
			StandardName: strings.TrimSpace(t.Cell(i, stdCol)),
		}
		if specOK {
			rec.Specialty = strings.TrimSpace(t.Cell(i, specCol))
		}
		if rec.BIName == "" || rec.StandardName == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func findColumn(t *tabular.Table, names ...string) (int, bool) {
	for _, n := range names {
		if col, ok := t.Column(n); ok {
			return col, true
		}
	}
	return -1, false
}

// Len returns the number of records.
func (r *Reference) Len() int { return len(r.records) }

// Records returns the reference entries in load order.
func (r *Reference) Records() []Record { return r.records }

// SetWorkers overrides the fuzzy-match fan-out width. Zero resets to NumCPU.
func (r *Reference) SetWorkers(n int) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	r.numWorkers = n
}

// Exact resolves a name by exact BI name or clean-alias equality only.
func (r *Reference) Exact(name string) (Match, bool) {
	if name == "" || len(r.records) == 0 {
		return Match{}, false
	}
	if i, ok := r.byBIName[name]; ok {
		return r.matchAt(i, 1.0), true
	}
	if i, ok := r.byAlias[normalize.CleanName(name, true)]; ok {
		return r.matchAt(i, 1.0), true
	}
	return Match{}, false
}

// Match resolves a name against the reference. Tiers: exact BI name, clean
// alias equality, then a fuzzy scan accepting the best ratio at or above
// threshold (0-1 scale).
func (r *Reference) Match(name string, threshold float64) (Match, bool) {
	if name == "" || len(r.records) == 0 {
		return Match{}, false
	}

	if m, ok := r.Exact(name); ok {
		return m, true
	}

	idx, score := r.fuzzyScan(name, threshold)
	if idx < 0 {
		return Match{}, false
	}
	return r.matchAt(idx, score), true
}

func (r *Reference) matchAt(i int, score float64) Match {
	rec := r.records[i]
	return Match{
		BIName:       rec.BIName,
		StandardName: rec.StandardName,
		Specialty:    rec.Specialty,
		Score:        score,
	}
}

// fuzzyScan returns the best-scoring record index at or above threshold, or
// -1. The scan is sharded across workers for large references.
func (r *Reference) fuzzyScan(name string, threshold float64) (int, float64) {
	lower := strings.ToLower(name)
	workers := r.numWorkers
	if workers < 1 {
		workers = 1
	}
	if len(r.records) < 256 {
		workers = 1
	}

	type hit struct {
		idx   int
		score float64
	}
	hits := make([]hit, workers)
	for i := range hits {
		hits[i] = hit{idx: -1}
	}

	var g errgroup.Group
	chunk := (len(r.records) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		w := w
		lo, hi := w*chunk, (w+1)*chunk
		if hi > len(r.records) {
			hi = len(r.records)
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			best := hit{idx: -1}
			for i := lo; i < hi; i++ {
				rec := r.records[i]
				score := float64(fuzzy.Ratio(lower, strings.ToLower(rec.BIName))) / 100.0
				if s2 := float64(fuzzy.Ratio(lower, strings.ToLower(rec.AliasClean))) / 100.0; s2 > score {
					score = s2
				}
				if score >= threshold && score > best.score {
					best = hit{idx: i, score: score}
				}
			}
			hits[w] = best
			return nil
		})
	}
	_ = g.Wait()

	best := hit{idx: -1}
	for _, h := range hits {
		if h.idx >= 0 && h.score > best.score {
			best = h
		}
	}
	return best.idx, best.score
}

// SearchResult is one row of an interactive golden lookup.
type SearchResult struct {
	BIName       string
	StandardName string
	Specialty    string
	Score        float64 // 0-100
}

// Search combines exact-substring, per-word, and partial-ratio matching,
// de-duplicates, and returns the top results sorted by score. Threshold is
// on the 0-100 scale used for display.
func (r *Reference) Search(query string, threshold float64, limit int) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" || len(r.records) == 0 || limit <= 0 {
		return nil
	}
	qLower := strings.ToLower(query)
	qWords := strings.Fields(qLower)

	var mu sync.Mutex
	scores := make(map[int]float64)

	record := func(i int, score float64) {
		mu.Lock()
		if score > scores[i] {
			scores[i] = score
		}
		mu.Unlock()
	}

	workers := r.numWorkers
	if workers < 1 || len(r.records) < 256 {
		workers = 1
	}
	var g errgroup.Group
	chunk := (len(r.records) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, (w+1)*chunk
		if hi > len(r.records) {
			hi = len(r.records)
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				name := strings.ToLower(r.records[i].BIName)

				if strings.Contains(name, qLower) {
					record(i, 100)
					continue
				}

				nameWords := strings.Fields(name)
				wordBest := 0.0
				for _, qw := range qWords {
					for _, nw := range nameWords {
						var s float64
						if strings.Contains(nw, qw) {
							s = 95
						} else {
							s = float64(fuzzy.Ratio(qw, nw))
						}
						if s > wordBest {
							wordBest = s
						}
					}
				}
				if wordBest >= threshold {
					record(i, wordBest)
					continue
				}

				if s := float64(fuzzy.PartialRatio(qLower, name)); s >= threshold {
					record(i, s)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	results := make([]SearchResult, 0, len(scores))
	for i, score := range scores {
		rec := r.records[i]
		results = append(results, SearchResult{
			BIName:       rec.BIName,
			StandardName: rec.StandardName,
			Specialty:    rec.Specialty,
			Score:        score,
		})
	}
	sort.Slice(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].BIName < results[b].BIName
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// HasBIName reports whether the raw BI name is already known.
func (r *Reference) HasBIName(name string) bool {
	_, ok := r.byBIName[name]
	return ok
}
