package golden

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "data", "golden.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreUpsert(t *testing.T) {
	s := openTestStore(t)

	rec := Record{BIName: "Dr Ahmed Mohammed Ali", StandardName: "Ahmed Mohamed Ali", Specialty: "Cardiology"}
	if err := s.Upsert(rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	n, err := s.Count()
	if err != nil || n != 1 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	// Same clean alias updates in place instead of inserting.
	if err := s.Upsert(Record{BIName: "Ahmad Mohamed Aly", StandardName: "Ahmed M. Ali"}); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	n, err = s.Count()
	if err != nil || n != 1 {
		t.Fatalf("Count after update = %d, %v", n, err)
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 || all[0].StandardName != "Ahmed M. Ali" {
		t.Fatalf("All = %+v", all)
	}
	if all[0].AliasClean == "" {
		t.Fatal("stored record has no clean alias")
	}

	if err := s.Upsert(Record{BIName: "No Standard"}); err == nil {
		t.Fatal("Upsert accepted an incomplete record")
	}
}

func TestStoreUpsertAll(t *testing.T) {
	s := openTestStore(t)

	n, err := s.UpsertAll([]Record{
		{BIName: "Dr Ahmed Mohammed Ali", StandardName: "Ahmed Mohamed Ali"},
		{BIName: "Dr Mona Fathi", StandardName: "Mona Fathy", Specialty: "Dermatology"},
		{BIName: "Skipped"},
	})
	if err != nil {
		t.Fatalf("UpsertAll: %v", err)
	}
	if n != 2 {
		t.Fatalf("UpsertAll wrote %d, want 2", n)
	}

	ref, err := s.Reference()
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}
	if ref.Len() != 2 {
		t.Fatalf("Reference Len = %d", ref.Len())
	}
	m, ok := ref.Exact("Dr Mona Fathi")
	if !ok || m.Specialty != "Dermatology" {
		t.Fatalf("Reference Exact = %+v, %v", m, ok)
	}
}

func TestStoreImportExport(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t)

	in := filepath.Join(dir, "golden.csv")
	data := "BI Name,Standard_Name,Original_Specialty\n" +
		"Dr Ahmed Mohammed Ali,Ahmed Mohamed Ali,Cardiology\n" +
		"Dr Mona Fathi,Mona Fathy,Dermatology\n"
	if err := os.WriteFile(in, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := s.ImportWorkbook(in)
	if err != nil || n != 2 {
		t.Fatalf("ImportWorkbook = %d, %v", n, err)
	}

	out := filepath.Join(dir, "export.xlsx")
	n, err = s.ExportWorkbook(out)
	if err != nil || n != 2 {
		t.Fatalf("ExportWorkbook = %d, %v", n, err)
	}

	ref, err := Load(out)
	if err != nil {
		t.Fatalf("Load export: %v", err)
	}
	if ref.Len() != 2 {
		t.Fatalf("exported Len = %d", ref.Len())
	}
}

func TestStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golden.db")

	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if err := s.Upsert(Record{BIName: "Dr Ahmed Mohammed Ali", StandardName: "Ahmed Mohamed Ali"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = OpenStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	n, err := s.Count()
	if err != nil || n != 1 {
		t.Fatalf("Count after reopen = %d, %v", n, err)
	}
}
