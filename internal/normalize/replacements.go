package normalize

import (
	"regexp"
	"strings"
)

// replacements maps a canonical spelling to the misspellings and
// transliteration variants seen in BI exports. Applied before tokenization
// so multi-word variants ("abd el fattah") collapse correctly.
var replacements = map[string][]string{
	"abdelfatah":  {"abd el fattah", "abd el fatah", "abdel fattah", "abdel fatah", "abdelfattah", "abdul fatah"},
	"abdelrazek":  {"abd el razek", "abd el razik", "abdel razek", "abdel razik", "abdelrazik", "abdul razek"},
	"abdelrahman": {"abd el rahman", "abdel rahman", "abd el rhman", "abdel rhman", "abdulrahman", "abdurrahman"},
	"abdallah":    {"abd allah", "abdellah", "abd ellah", "abdullah", "abdulah", "abdulla"},
	"mohamed":     {"mohammed", "mohamad", "muhamed", "mohammod", "mohammad", "muhamad", "muhammed"},
	"ahmed":       {"ahmad", "ahmet", "ahmmed", "ahmd", "ahmid", "ahmade"},
	"mostafa":     {"mustafa", "moustafa", "mustpha", "mostpha", "mustapha", "mstafa"},
	"fatma":       {"fatima", "fatimah", "fatmah", "fatmeh", "fatemah", "fatema", "fatimeh"},
	"yousef":      {"youssef", "yousif", "yusef", "yusif", "youssif", "yosef", "usif"},
	"sherif":      {"shareef", "shereef", "sharif", "shareif", "sheref", "sharef"},
	"fathy":       {"fathi", "fathii", "fathie", "fatthy", "fathey"},
	"ali":         {"aly", "alee", "alii", "aalee", "aaly"},
}

var (
	variantRe = buildVariantRe()
	variantOf = buildVariantMap()
)

func buildVariantRe() *regexp.Regexp {
	variants := make([]string, 0, 64)
	for _, wrongs := range replacements {
		for _, w := range wrongs {
			variants = append(variants, regexp.QuoteMeta(w))
		}
	}
	// Longest first so "abd el fattah" wins over "abd el".
	sortByLenDesc(variants)
	return regexp.MustCompile(`(?i)\b(` + strings.Join(variants, "|") + `)\b`)
}

func buildVariantMap() map[string]string {
	m := make(map[string]string, 64)
	for correct, wrongs := range replacements {
		for _, w := range wrongs {
			m[strings.ToLower(w)] = correct
		}
	}
	return m
}

// applyReplacements rewrites every known variant spelling in s to its
// canonical form. Input is expected to be lowercase.
func applyReplacements(s string) string {
	if s == "" {
		return ""
	}
	return variantRe.ReplaceAllStringFunc(s, func(m string) string {
		if canon, ok := variantOf[strings.ToLower(m)]; ok {
			return canon
		}
		return m
	})
}
