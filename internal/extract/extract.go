// Package extract classifies BI rows as persons or facilities and pulls the
// person name out of polluted raw strings.
package extract

import (
	"regexp"
	"strings"

	"uninames/internal/normalize"
)

// EntityKind distinguishes person rows from facility rows.
type EntityKind string

const (
	KindPerson   EntityKind = "person"
	KindFacility EntityKind = "facility"
)

var (
	bracketRe  = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}`)
	punctRe    = regexp.MustCompile(`[^\w\s]`)
	spaceRe    = regexp.MustCompile(`\s+`)
	wordRe     = regexp.MustCompile(`\w+`)
	digitsRe   = regexp.MustCompile(`^\d+$`)
	facilityRe = regexp.MustCompile(`\b(clinic|centre|center|department|unit|polyclinic|hospital|ward)\b$`)
)

// PersonName extracts a person name from a raw BI string: bracketed content,
// punctuation, titles, service words, branch codes, numerals and single
// characters are dropped and the remainder Title-cased.
func PersonName(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	text = bracketRe.ReplaceAllString(text, "")
	text = punctRe.ReplaceAllString(text, " ")

	words := strings.Fields(text)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		lower := strings.ToLower(strings.TrimSpace(w))
		if normalize.IsTitle(lower) || normalize.IsServiceWord(lower) || normalize.IsBranchCode(lower) {
			continue
		}
		if len(lower) < 2 || digitsRe.MatchString(lower) {
			continue
		}
		kept = append(kept, normalize.TitleWord(lower))
	}

	return strings.TrimSpace(spaceRe.ReplaceAllString(strings.Join(kept, " "), " "))
}

// IsFacility reports whether a raw name denotes a facility or service line
// rather than a person. A short "Dr ..." string without service words is
// always a person.
func IsFacility(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}

	hasService := normalize.ServiceRe().MatchString(n)

	if strings.HasPrefix(n, "dr ") || strings.HasPrefix(n, "dr.") || strings.HasPrefix(n, "doctor ") {
		if len(wordRe.FindAllString(n, -1)) <= 3 && !hasService {
			return false
		}
	}

	if hasService {
		return true
	}
	return facilityRe.MatchString(n)
}

// Kind classifies a raw name.
func Kind(name string) EntityKind {
	if IsFacility(name) {
		return KindFacility
	}
	return KindPerson
}
