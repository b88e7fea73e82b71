package extract

import "testing"

func TestPersonName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"titles and branch stripped", "Dr. Ahmed Saad - SNB Clinic", "Ahmed Saad"},
		{"brackets removed", "Prof Mona El Sayed (AKW)", "Mona El Sayed"},
		{"plain name", "doctor ali hassan", "Ali Hassan"},
		{"numerals and short tokens dropped", "123 Ward 4", ""},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PersonName(tt.raw); got != tt.want {
				t.Fatalf("PersonName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIsFacility(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"service words", "Dental Clinic SNB", true},
		{"short dr prefix is person", "Dr Ahmed Saad", false},
		{"dr prefix with service word", "Dr Ahmed Saad Clinic", true},
		{"trailing facility word", "Al Noor Hospital", true},
		{"department", "Cardiology Department", true},
		{"ward", "Emergency Ward", true},
		{"two-token person", "Ahmed Mostafa", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFacility(tt.in); got != tt.want {
				t.Fatalf("IsFacility(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestKind(t *testing.T) {
	if got := Kind("Dr Ahmed Saad"); got != KindPerson {
		t.Fatalf("Kind person = %v", got)
	}
	if got := Kind("Dental Clinic SNB"); got != KindFacility {
		t.Fatalf("Kind facility = %v", got)
	}
}
