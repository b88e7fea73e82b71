// Package pipeline orchestrates a cleaning run: read input, classify rows,
// extract and normalize names, match against the golden reference, cluster
// the remainder, and write the output workbook plus review files.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"uninames/internal/cluster"
	"uninames/internal/config"
	"uninames/internal/extract"
	"uninames/internal/golden"
	"uninames/internal/normalize"
	"uninames/internal/tabular"
)

// Request describes one processing run.
type Request struct {
	InputPath     string
	OutputPath    string
	GoldenPath    string // empty: probe conventional locations
	NewAliasesOut string // empty: skip unless config provides a default
	Threshold     float64
}

// Stats summarizes a completed run.
type Stats struct {
	RunID         string
	Persons       int
	Facilities    int
	GoldenRecords int
	GoldenMatches int
	UniqueBefore  int
	UniqueAfter   int
	ReductionPct  float64
	ChangedPct    float64
	NewAliases    int
	Elapsed       time.Duration
}

// Processor runs cleaning requests.
type Processor struct {
	cfg *config.Config
	log *zap.Logger
}

// New builds a Processor. A nil logger falls back to zap.NewNop.
func New(cfg *config.Config, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{cfg: cfg, log: logger}
}

type personRow struct {
	biName        string
	origSpecialty string
	specialtyStd  string
	extracted     string
	cleaned       string
	goldenMatch   string
	matchScore    float64
	standardName  string
	notSure       bool
}

type facilityRow struct {
	biName       string
	standardName string
}

// Run processes one request and returns run statistics.
func (p *Processor) Run(ctx context.Context, req Request) (*Stats, error) {
	start := time.Now()
	stats := &Stats{RunID: uuid.NewString()}
	log := p.log.With(zap.String("run_id", stats.RunID))

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = p.cfg.Processing.UnsureThreshold
	}

	log.Info("starting processing",
		zap.String("input", req.InputPath),
		zap.String("output", req.OutputPath),
		zap.String("golden", req.GoldenPath),
		zap.Float64("threshold", threshold))

	in, err := tabular.Read(req.InputPath)
	if err != nil {
		return nil, err
	}
	biCol, ok := in.Column("bi name")
	if !ok {
		return nil, fmt.Errorf("pipeline: input file must contain column 'BI Name'")
	}
	specCol, hasSpec := in.Column("specialty")
	log.Info("loaded input", zap.Int("rows", len(in.Rows)))

	ref, err := p.loadGolden(req.GoldenPath, log)
	if err != nil {
		return nil, err
	}
	stats.GoldenRecords = ref.Len()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	persons, facilities := p.splitRows(in, biCol, specCol, hasSpec)
	stats.Persons, stats.Facilities = len(persons), len(facilities)
	log.Info("classified entities",
		zap.Int("persons", len(persons)),
		zap.Int("facilities", len(facilities)))

	if err := p.matchPersons(ctx, persons, ref); err != nil {
		return nil, err
	}
	for _, row := range persons {
		if row.goldenMatch != "" {
			stats.GoldenMatches++
		}
	}
	if ref.Len() > 0 {
		log.Info("golden matching done",
			zap.Int("matched", stats.GoldenMatches),
			zap.Int("persons", len(persons)))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.cfg.Processing.EnableClustering {
		p.clusterUnmatched(persons, threshold, log)
	}

	for _, f := range facilities {
		f.standardName = normalize.CleanName(f.biName, false)
	}

	stats.NewAliases = p.writeNewAliases(req, persons, ref, log)

	if err := p.writeOutput(req.OutputPath, persons, facilities); err != nil {
		return nil, err
	}

	p.finishStats(stats, persons, start)
	log.Info("processing complete",
		zap.Int("persons", stats.Persons),
		zap.Int("facilities", stats.Facilities),
		zap.Int("unique_before", stats.UniqueBefore),
		zap.Int("unique_after", stats.UniqueAfter),
		zap.Float64("reduction_pct", stats.ReductionPct),
		zap.Float64("changed_pct", stats.ChangedPct),
		zap.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

// loadGolden resolves the golden reference: an explicit path must load; an
// empty path probes the configured file and the conventional locations, and
// an absent reference is tolerated with a warning.
func (p *Processor) loadGolden(path string, log *zap.Logger) (*golden.Reference, error) {
	if path != "" {
		ref, err := golden.Load(path)
		if err != nil {
			return nil, err
		}
		ref.SetWorkers(p.cfg.Processing.MatchWorkers)
		log.Info("loaded golden reference", zap.String("path", path), zap.Int("records", ref.Len()))
		return ref, nil
	}

	candidates := []string{p.cfg.Paths.GoldenReference}
	if found, ok := config.BestGoldenReference("."); ok {
		candidates = append(candidates, found)
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		ref, err := golden.Load(c)
		if err != nil {
			continue
		}
		ref.SetWorkers(p.cfg.Processing.MatchWorkers)
		log.Info("auto-detected golden reference", zap.String("path", c), zap.Int("records", ref.Len()))
		return ref, nil
	}

	log.Warn("no golden reference found, matching disabled")
	return golden.New(nil), nil
}

func (p *Processor) splitRows(in *tabular.Table, biCol, specCol int, hasSpec bool) ([]*personRow, []*facilityRow) {
	var persons []*personRow
	var facilities []*facilityRow
	for i := range in.Rows {
		biName := in.Cell(i, biCol)
		if biName == "" {
			continue
		}
		spec := ""
		if hasSpec {
			spec = in.Cell(i, specCol)
		}

		if p.cfg.Processing.SplitPersonsFacilities && extract.IsFacility(biName) {
			facilities = append(facilities, &facilityRow{biName: biName})
			continue
		}

		row := &personRow{biName: biName, origSpecialty: spec}
		if hasSpec {
			row.specialtyStd = normalize.Specialty(spec)
		} else {
			row.specialtyStd = "Unknown"
		}
		if p.cfg.Processing.EnableSmartExtraction {
			row.extracted = extract.PersonName(biName)
		} else {
			row.extracted = biName
		}
		row.cleaned = normalize.CleanName(row.extracted, true)
		persons = append(persons, row)
	}
	return persons, facilities
}

// matchPersons resolves each person against the golden reference, fanning
// the fuzzy tier across a bounded worker pool.
func (p *Processor) matchPersons(ctx context.Context, persons []*personRow, ref *golden.Reference) error {
	if ref.Len() == 0 {
		for _, row := range persons {
			row.standardName = row.cleaned
		}
		return nil
	}

	workers := p.cfg.Processing.MatchWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	matchThreshold := p.cfg.Processing.GoldenMatchThreshold

	for _, row := range persons {
		row := row
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if m, ok := ref.Exact(row.biName); ok {
				row.goldenMatch = m.BIName
				row.matchScore = m.Score
				row.standardName = m.StandardName
				return nil
			}
			if row.extracted != "" {
				if m, ok := ref.Match(row.extracted, matchThreshold); ok {
					row.goldenMatch = m.BIName
					row.matchScore = m.Score
					row.standardName = m.StandardName
					return nil
				}
			}
			if row.extracted != "" {
				row.standardName = row.extracted
			} else {
				row.standardName = row.biName
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *Processor) clusterUnmatched(persons []*personRow, threshold float64, log *zap.Logger) {
	var unmatched []string
	for _, row := range persons {
		if row.goldenMatch == "" && row.standardName != "" {
			unmatched = append(unmatched, row.standardName)
		}
	}
	if len(unmatched) == 0 {
		return
	}

	log.Info("clustering unmatched names", zap.Int("count", len(unmatched)))
	res := cluster.Merge(unmatched, cluster.Options{
		AutoMergeThreshold: p.cfg.Processing.AutoMergeThreshold,
		UnsureThreshold:    threshold,
		MaxRows:            p.cfg.Processing.MaxClusterRows,
	})
	if res.Skipped {
		log.Warn("clustering skipped, row cap exceeded",
			zap.Int("rows", len(unmatched)),
			zap.Int("cap", p.cfg.Processing.MaxClusterRows))
		return
	}

	for _, row := range persons {
		if to, ok := res.Mapping[row.standardName]; ok {
			row.standardName = to
		}
		if res.Unsure[row.standardName] {
			row.notSure = true
		}
	}
	if len(res.Mapping) > 0 {
		log.Info("merged name variants", zap.Int("merged", len(res.Mapping)), zap.Int("unsure", len(res.Unsure)))
	}
}

// writeNewAliases exports unknown aliases for manual review. Failures are
// logged, not fatal.
func (p *Processor) writeNewAliases(req Request, persons []*personRow, ref *golden.Reference, log *zap.Logger) int {
	out := req.NewAliasesOut
	if out == "" {
		out = p.cfg.Paths.NewAliasesOut
	}
	if out == "" {
		return 0
	}

	t := &tabular.Table{
		Headers: []string{"BI Name", "Extracted_Name", "Original_Specialty", "Standard_Name", "Unsure"},
	}
	seen := make(map[string]bool)
	for _, row := range persons {
		if ref.Len() > 0 && ref.HasBIName(row.biName) {
			continue
		}
		key := row.biName + "\x00" + row.extracted + "\x00" + row.origSpecialty + "\x00" + row.standardName
		if seen[key] {
			continue
		}
		seen[key] = true
		t.Rows = append(t.Rows, []string{row.biName, row.extracted, row.origSpecialty, row.standardName, "Not Sure"})
	}
	if len(t.Rows) == 0 {
		return 0
	}

	if err := tabular.Write(out, []tabular.Sheet{{Name: "New Aliases", Table: t}}); err != nil {
		log.Warn("could not write new aliases file", zap.String("path", out), zap.Error(err))
		return 0
	}
	log.Info("wrote new aliases for review", zap.Int("count", len(t.Rows)), zap.String("path", out))
	return len(t.Rows)
}

func (p *Processor) writeOutput(path string, persons []*personRow, facilities []*facilityRow) error {
	anyUnsure := false
	for _, row := range persons {
		if row.notSure {
			anyUnsure = true
			break
		}
	}

	headers := []string{
		"BI Name", "Extracted_Name", "Original_Specialty", "Specialty_Std",
		"Golden_Match", "Match_Score", "Standard_Name", "Name_Changed",
	}
	if anyUnsure {
		headers = append(headers, "Not_Sure")
	}
	doctors := &tabular.Table{Headers: headers}
	for _, row := range persons {
		changed := strconv.FormatBool(row.biName != row.standardName)
		score := ""
		if row.matchScore > 0 {
			score = strconv.FormatFloat(row.matchScore, 'f', 3, 64)
		}
		r := []string{
			row.biName, row.extracted, row.origSpecialty, row.specialtyStd,
			row.goldenMatch, score, row.standardName, changed,
		}
		if anyUnsure {
			flag := ""
			if row.notSure {
				flag = "Not Sure"
			}
			r = append(r, flag)
		}
		doctors.Rows = append(doctors.Rows, r)
	}

	facTable := &tabular.Table{Headers: []string{"BI Name", "Standard_Name", "Name_Changed"}}
	for _, f := range facilities {
		facTable.Rows = append(facTable.Rows, []string{
			f.biName, f.standardName, strconv.FormatBool(f.biName != f.standardName),
		})
	}

	sheets := []tabular.Sheet{}
	if len(doctors.Rows) > 0 || len(facTable.Rows) == 0 {
		sheets = append(sheets, tabular.Sheet{Name: "Doctors", Table: doctors})
	}
	if len(facTable.Rows) > 0 {
		sheets = append(sheets, tabular.Sheet{Name: "Facilities", Table: facTable})
	}
	return tabular.Write(path, sheets)
}

func (p *Processor) finishStats(stats *Stats, persons []*personRow, start time.Time) {
	before := make(map[string]bool)
	after := make(map[string]bool)
	changed := 0
	for _, row := range persons {
		before[row.biName] = true
		after[row.standardName] = true
		if row.biName != row.standardName {
			changed++
		}
	}
	stats.UniqueBefore = len(before)
	stats.UniqueAfter = len(after)
	if stats.UniqueBefore > 0 {
		stats.ReductionPct = float64(stats.UniqueBefore-stats.UniqueAfter) / float64(stats.UniqueBefore) * 100
	}
	if len(persons) > 0 {
		stats.ChangedPct = float64(changed) / float64(len(persons)) * 100
	}
	stats.Elapsed = time.Since(start)
}
