package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"uninames/internal/config"
	"uninames/internal/tabular"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testConfig returns defaults with every implicit file path pointed into dir
// so runs never touch the working directory.
func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Paths.GoldenReference = filepath.Join(dir, "absent-golden.xlsx")
	cfg.Paths.NewAliasesOut = ""
	return cfg
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunWithGoldenReference(t *testing.T) {
	dir := t.TempDir()

	inputPath := filepath.Join(dir, "input.csv")
	writeFile(t, inputPath, "BI Name,Specialty\n"+
		"Dr Ahmed Mohammed Ali,Cardio\n"+
		"Dental Clinic SNB,Dental\n"+
		"Ahmad Mohamed Aly,cardio\n")

	goldenPath := filepath.Join(dir, "golden.csv")
	writeFile(t, goldenPath, "BI Name,Standard_Name,Original_Specialty\n"+
		"Dr Ahmed Mohammed Ali,Ahmed Mohamed Ali,Cardiology\n")

	outputPath := filepath.Join(dir, "output.xlsx")
	aliasesPath := filepath.Join(dir, "new_aliases.xlsx")

	proc := New(testConfig(dir), nil)
	stats, err := proc.Run(context.Background(), Request{
		InputPath:     inputPath,
		OutputPath:    outputPath,
		GoldenPath:    goldenPath,
		NewAliasesOut: aliasesPath,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.RunID == "" {
		t.Error("empty run ID")
	}
	if stats.Persons != 2 || stats.Facilities != 1 {
		t.Errorf("Persons = %d, Facilities = %d", stats.Persons, stats.Facilities)
	}
	if stats.GoldenRecords != 1 || stats.GoldenMatches != 2 {
		t.Errorf("GoldenRecords = %d, GoldenMatches = %d", stats.GoldenRecords, stats.GoldenMatches)
	}
	if stats.UniqueBefore != 2 || stats.UniqueAfter != 1 {
		t.Errorf("UniqueBefore = %d, UniqueAfter = %d", stats.UniqueBefore, stats.UniqueAfter)
	}
	if stats.ReductionPct != 50 {
		t.Errorf("ReductionPct = %v", stats.ReductionPct)
	}
	if stats.NewAliases != 1 {
		t.Errorf("NewAliases = %d", stats.NewAliases)
	}

	doctors, err := tabular.ReadSheet(outputPath, "Doctors")
	if err != nil {
		t.Fatalf("read Doctors: %v", err)
	}
	wantHeaders := []string{
		"BI Name", "Extracted_Name", "Original_Specialty", "Specialty_Std",
		"Golden_Match", "Match_Score", "Standard_Name", "Name_Changed",
	}
	if diff := cmp.Diff(wantHeaders, doctors.Headers); diff != "" {
		t.Errorf("Doctors headers mismatch (-want +got):\n%s", diff)
	}
	wantRows := [][]string{
		{"Dr Ahmed Mohammed Ali", "Ahmed Mohammed Ali", "Cardio", "Cardiology",
			"Dr Ahmed Mohammed Ali", "1.000", "Ahmed Mohamed Ali", "true"},
		{"Ahmad Mohamed Aly", "Ahmad Mohamed Aly", "cardio", "Cardiology",
			"Dr Ahmed Mohammed Ali", "1.000", "Ahmed Mohamed Ali", "true"},
	}
	if diff := cmp.Diff(wantRows, doctors.Rows); diff != "" {
		t.Errorf("Doctors rows mismatch (-want +got):\n%s", diff)
	}

	facilities, err := tabular.ReadSheet(outputPath, "Facilities")
	if err != nil {
		t.Fatalf("read Facilities: %v", err)
	}
	wantFac := [][]string{{"Dental Clinic SNB", "Dental Clinic", "true"}}
	if diff := cmp.Diff(wantFac, facilities.Rows); diff != "" {
		t.Errorf("Facilities rows mismatch (-want +got):\n%s", diff)
	}

	aliases, err := tabular.Read(aliasesPath)
	if err != nil {
		t.Fatalf("read new aliases: %v", err)
	}
	wantAliases := [][]string{
		{"Ahmad Mohamed Aly", "Ahmad Mohamed Aly", "cardio", "Ahmed Mohamed Ali", "Not Sure"},
	}
	if diff := cmp.Diff(wantAliases, aliases.Rows); diff != "" {
		t.Errorf("new aliases mismatch (-want +got):\n%s", diff)
	}
}

func TestRunWithoutGoldenClustersVariants(t *testing.T) {
	dir := t.TempDir()

	inputPath := filepath.Join(dir, "input.csv")
	writeFile(t, inputPath, "BI Name\n"+
		"Ahmed Mohamed Saad\n"+
		"Ahmed Mohamed Ali Saad\n")

	outputPath := filepath.Join(dir, "output.xlsx")
	proc := New(testConfig(dir), nil)
	stats, err := proc.Run(context.Background(), Request{
		InputPath:  inputPath,
		OutputPath: outputPath,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.GoldenRecords != 0 || stats.GoldenMatches != 0 {
		t.Errorf("GoldenRecords = %d, GoldenMatches = %d", stats.GoldenRecords, stats.GoldenMatches)
	}
	if stats.UniqueBefore != 2 || stats.UniqueAfter != 1 {
		t.Errorf("UniqueBefore = %d, UniqueAfter = %d", stats.UniqueBefore, stats.UniqueAfter)
	}

	doctors, err := tabular.ReadSheet(outputPath, "Doctors")
	if err != nil {
		t.Fatalf("read Doctors: %v", err)
	}
	std, ok := doctors.Column("standard name")
	if !ok {
		t.Fatal("no Standard_Name column")
	}
	for i := range doctors.Rows {
		if got := doctors.Cell(i, std); got != "Ahmed Mohamed Ali Saad" {
			t.Errorf("row %d Standard_Name = %q", i, got)
		}
	}
}

func TestRunFlagsUnsurePairs(t *testing.T) {
	dir := t.TempDir()

	inputPath := filepath.Join(dir, "input.csv")
	writeFile(t, inputPath, "BI Name\n"+
		"Ahmed Ali Saad\n"+
		"Ahmed Mostafa Saad\n")

	outputPath := filepath.Join(dir, "output.xlsx")
	proc := New(testConfig(dir), nil)
	if _, err := proc.Run(context.Background(), Request{
		InputPath:  inputPath,
		OutputPath: outputPath,
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	doctors, err := tabular.ReadSheet(outputPath, "Doctors")
	if err != nil {
		t.Fatalf("read Doctors: %v", err)
	}
	col, ok := doctors.Column("not sure")
	if !ok {
		t.Fatal("no Not_Sure column")
	}
	for i := range doctors.Rows {
		if got := doctors.Cell(i, col); got != "Not Sure" {
			t.Errorf("row %d Not_Sure = %q", i, got)
		}
	}
}

func TestRunMissingBIColumn(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.csv")
	writeFile(t, inputPath, "Name\nAhmed\n")

	proc := New(testConfig(dir), nil)
	_, err := proc.Run(context.Background(), Request{
		InputPath:  inputPath,
		OutputPath: filepath.Join(dir, "out.xlsx"),
	})
	if err == nil {
		t.Fatal("Run accepted input without a BI Name column")
	}
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.csv")
	writeFile(t, inputPath, "BI Name\nAhmed Saad\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := New(testConfig(dir), nil)
	_, err := proc.Run(ctx, Request{
		InputPath:  inputPath,
		OutputPath: filepath.Join(dir, "out.xlsx"),
	})
	if err == nil {
		t.Fatal("Run ignored a cancelled context")
	}
}
