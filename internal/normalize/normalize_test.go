package normalize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		person bool
		want   []string
	}{
		{
			name:   "titles and branch codes stripped",
			input:  "Dr. Ahmed Mohammed Ali (SNB)",
			person: true,
			want:   []string{"ahmed", "mohamed", "ali"},
		},
		{
			name:   "multi-word variant folded",
			input:  "Abd El Rahman Khalid",
			person: true,
			want:   []string{"abdelrahman", "khaled"},
		},
		{
			name:   "al prefix joined",
			input:  "Al Salam Clinic",
			person: false,
			want:   []string{"elsalam", "clinic"},
		},
		{
			name:   "degrees dropped",
			input:  "Mona Fathi MD PhD",
			person: true,
			want:   []string{"mona", "fathy"},
		},
		{
			name:   "bracketed fragments removed",
			input:  "Youssef Hussain {AKW} [on leave]",
			person: true,
			want:   []string{"yousef", "hussein"},
		},
		{
			name:   "facility duplicate tokens collapse",
			input:  "Lab Lab Unit",
			person: false,
			want:   []string{"lab", "unit"},
		},
		{
			name:   "empty input",
			input:  "   ",
			person: true,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(tt.input, tt.person)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokens(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		input  string
		person bool
		want   string
	}{
		{"dr ahmed mohammed ali", true, "Ahmed Mohamed Ali"},
		{"MUSTAFA youssef", true, "Mostafa Yousef"},
		{"", true, ""},
		{"Dental Clinic SNB", false, "Dental Clinic"},
	}
	for _, tt := range tests {
		if got := CleanName(tt.input, tt.person); got != tt.want {
			t.Errorf("CleanName(%q, %v) = %q, want %q", tt.input, tt.person, got, tt.want)
		}
	}
}

func TestCleanNameCached(t *testing.T) {
	// Same input twice must return identical results through the memo path.
	a := CleanName("Dr Tareq Hussain", true)
	b := CleanName("Dr Tareq Hussain", true)
	if a != b || a != "Tarek Hussein" {
		t.Fatalf("cached CleanName = %q / %q, want %q", a, b, "Tarek Hussein")
	}
}

func TestTokensConcurrent(t *testing.T) {
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				Tokens("Dr Ahmed Mohammed Ali SNB", true)
				Tokens("Al Salam Hospital", false)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestApplyReplacements(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mohammed ahmad", "mohamed ahmed"},
		{"abd el fattah", "abdelfatah"},
		{"sherif", "sherif"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := applyReplacements(tt.in); got != tt.want {
			t.Errorf("applyReplacements(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenHelpers(t *testing.T) {
	if !IsBranchCode("snb") || IsBranchCode("cairo") {
		t.Error("IsBranchCode misclassified")
	}
	if !IsServiceWord("clinic") || IsServiceWord("ahmed") {
		t.Error("IsServiceWord misclassified")
	}
	if !IsTitle("dr") || IsTitle("nurse") {
		t.Error("IsTitle misclassified")
	}
}
