package cluster

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testOpts = Options{AutoMergeThreshold: 0.90, UnsureThreshold: 0.70}

func TestKey(t *testing.T) {
	tests := []struct {
		tokens []string
		want   BlockKey
	}{
		{nil, BlockKey{}},
		{[]string{"ahmed", "saad"}, BlockKey{First: "ahmed", Last: "saad", Band: 0}},
		{[]string{"ahmed", "mohamed", "saad"}, BlockKey{First: "ahmed", Last: "saad", Band: 1}},
		{[]string{"a", "b", "c", "d", "e"}, BlockKey{First: "a", Last: "e", Band: 2}},
	}
	for _, tt := range tests {
		if got := Key(tt.tokens); got != tt.want {
			t.Errorf("Key(%v) = %+v, want %+v", tt.tokens, got, tt.want)
		}
	}
}

func TestMergeSubsetNames(t *testing.T) {
	res := Merge([]string{
		"Ahmed Mohamed Saad",
		"Ahmed Mohamed Ali Saad",
		"Mona Fathy",
	}, testOpts)

	if res.Skipped {
		t.Fatal("Skipped set")
	}
	want := map[string]string{"Ahmed Mohamed Saad": "Ahmed Mohamed Ali Saad"}
	if diff := cmp.Diff(want, res.Mapping); diff != "" {
		t.Errorf("Mapping mismatch (-want +got):\n%s", diff)
	}
	if len(res.Unsure) != 0 {
		t.Errorf("Unsure = %v", res.Unsure)
	}
}

func TestMergeUnsureBand(t *testing.T) {
	res := Merge([]string{
		"Ahmed Ali Saad",
		"Ahmed Mostafa Saad",
	}, testOpts)

	if len(res.Mapping) != 0 {
		t.Fatalf("Mapping = %v", res.Mapping)
	}
	if !res.Unsure["Ahmed Ali Saad"] || !res.Unsure["Ahmed Mostafa Saad"] {
		t.Fatalf("Unsure = %v", res.Unsure)
	}
}

func TestMergeFamilyGuard(t *testing.T) {
	// The normalized tokens agree, but the raw family tokens differ, so the
	// pair is never merged.
	res := Merge([]string{"Ahmed Aly", "Ahmed Ali"}, testOpts)
	if len(res.Mapping) != 0 || len(res.Unsure) != 0 {
		t.Fatalf("Mapping = %v, Unsure = %v", res.Mapping, res.Unsure)
	}
}

func TestMergeRowCap(t *testing.T) {
	opts := testOpts
	opts.MaxRows = 1
	res := Merge([]string{"Ahmed Saad", "Ahmed Saad Ali"}, opts)
	if !res.Skipped {
		t.Fatal("Skipped not set")
	}
	if len(res.Mapping) != 0 {
		t.Fatalf("Mapping = %v", res.Mapping)
	}
}

func TestMergeIgnoresEmptyAndDuplicates(t *testing.T) {
	res := Merge([]string{"", "Mona Fathy", "Mona Fathy"}, testOpts)
	if len(res.Mapping) != 0 || len(res.Unsure) != 0 {
		t.Fatalf("Mapping = %v, Unsure = %v", res.Mapping, res.Unsure)
	}
}

func TestFlattenMapping(t *testing.T) {
	m := map[string]string{"a": "b", "b": "c"}
	flattenMapping(m)
	want := map[string]string{"a": "c", "b": "c"}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("flattened mapping mismatch (-want +got):\n%s", diff)
	}
}
