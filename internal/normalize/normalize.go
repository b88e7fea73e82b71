// Package normalize turns raw provider-name strings into canonical token
// forms. All functions are pure; results for Tokens and CleanName are
// memoized and safe for concurrent use.
package normalize

import (
	"regexp"
	"strings"
	"sync"
)

// Branch codes appended by BI exports (e.g. "Dr Ahmed Saad SNB").
var branchCodes = []string{"afw", "ahj", "akw", "alw", "fwz", "snb", "trad", "trd"}

// serviceWords mark a row as a facility rather than a person.
var serviceWords = map[string]bool{
	"clinic": true, "screening": true, "dental": true, "endoscopy": true,
	"endoscopic": true, "er": true, "icu": true, "ent": true,
	"nutrition": true, "radiology": true, "imaging": true, "xray": true,
	"x-ray": true, "lab": true, "labs": true, "laboratory": true,
	"unit": true, "department": true, "dept": true, "center": true,
	"centre": true, "polyclinic": true, "ward": true, "opd": true,
	"ipd": true, "ot": true, "theatre": true, "therapy": true,
	"physio": true, "orthopedic": true, "orthopaedic": true, "derma": true,
	"dermatology": true, "pediatrics": true, "paediatrics": true,
	"gyne": true, "gyn": true, "obgyn": true, "ophthalmology": true,
	"urology": true, "cardio": true, "cardiology": true, "hepatology": true,
	"gastro": true, "snb": true, "fwz": true, "trd": true, "trad": true,
	"hospital": true, "homecare": true, "home": true, "care": true,
}

var titleWords = map[string]bool{
	"dr": true, "doctor": true, "prof": true, "mr": true, "mrs": true,
	"ms": true, "miss": true, "md": true, "phd": true,
}

var degreeTokens = map[string]bool{
	"md": true, "phd": true, "msc": true, "bsc": true, "frcs": true,
	"mrcp": true, "mrcgp": true, "facc": true, "facs": true, "fcps": true,
	"mbbs": true, "do": true, "dds": true, "dmd": true, "mba": true,
	"dch": true,
}

// tokenMap folds common transliteration variants onto one spelling.
var tokenMap = map[string]string{
	"mohammed": "mohamed", "muhammad": "mohamed", "mohamad": "mohamed",
	"muhamad": "mohamed", "ahmad": "ahmed", "youssef": "yousef",
	"yusuf": "yousef", "yousif": "yousef", "hussain": "hussein",
	"khalid": "khaled", "tariq": "tarek", "tareq": "tarek",
	"al": "el", "al-": "el", "el-": "el",
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s\-]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
	hyphenSplit  = regexp.MustCompile(`[\s\-]+`)
	bracketedRe  = regexp.MustCompile(`\{.*?\}|\[.*?\]|\(.*?\)|\$\{.*?\}`)
	titleRe      = regexp.MustCompile(`(?i)\b(dr|doctor|prof|mr|mrs|ms|miss|md|phd|msc|bsc|consultant|specialist)\b\.?`)
	abdRe        = regexp.MustCompile(`(?i)\babd(?:\s*[\-_])*\s*(?:el|al)\b`)
	leadingARe   = regexp.MustCompile(`\ba\s+([a-z])`)
	branchRe     = regexp.MustCompile(`(?i)\b(` + strings.Join(branchCodes, "|") + `)\b`)
	serviceRe    = buildServiceRe()
)

func buildServiceRe() *regexp.Regexp {
	words := make([]string, 0, len(serviceWords))
	for w := range serviceWords {
		words = append(words, regexp.QuoteMeta(w))
	}
	// Longest alternative first so "x-ray" beats "x".
	sortByLenDesc(words)
	return regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
}

func sortByLenDesc(words []string) {
	for i := 1; i < len(words); i++ {
		for j := i; j > 0 && longerOrEarlier(words[j], words[j-1]); j-- {
			words[j], words[j-1] = words[j-1], words[j]
		}
	}
}

func longerOrEarlier(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a < b
}

// IsServiceWord reports whether the lowercase token is a service/department word.
func IsServiceWord(tok string) bool { return serviceWords[tok] }

// IsBranchCode reports whether the lowercase token is a known branch code.
func IsBranchCode(tok string) bool {
	for _, c := range branchCodes {
		if tok == c {
			return true
		}
	}
	return false
}

// IsTitle reports whether the lowercase token is a personal title.
func IsTitle(tok string) bool { return titleWords[tok] }

// ServiceRe returns the compiled service-word matcher.
func ServiceRe() *regexp.Regexp { return serviceRe }

type tokenCacheKey struct {
	name   string
	person bool
}

var (
	tokenCacheMu sync.RWMutex
	tokenCache   = make(map[tokenCacheKey][]string)
)

// tokenCacheLimit bounds the memo map; the whole map is dropped when full.
const tokenCacheLimit = 200_000

// Tokens normalizes a raw name into lowercase tokens. Bracketed fragments,
// branch codes, titles, punctuation and degree tokens are stripped, variant
// spellings folded, and "al"/"el" joined with the following token.
func Tokens(name string, person bool) []string {
	key := tokenCacheKey{name: name, person: person}
	tokenCacheMu.RLock()
	cached, ok := tokenCache[key]
	tokenCacheMu.RUnlock()
	if ok {
		return cached
	}

	out := tokenize(name, person)

	tokenCacheMu.Lock()
	if len(tokenCache) >= tokenCacheLimit {
		tokenCache = make(map[tokenCacheKey][]string)
	}
	tokenCache[key] = out
	tokenCacheMu.Unlock()
	return out
}

func tokenize(name string, person bool) []string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return nil
	}

	s = bracketedRe.ReplaceAllString(s, " ")
	s = branchRe.ReplaceAllString(s, " ")
	s = titleRe.ReplaceAllString(s, " ")
	s = nonWordRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "_", " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	s = applyReplacements(s)
	s = abdRe.ReplaceAllString(s, "abdel")
	s = leadingARe.ReplaceAllString(s, "al $1")

	raw := hyphenSplit.Split(s, -1)
	out := make([]string, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		t := raw[i]
		if t == "" || degreeTokens[t] {
			continue
		}
		if (t == "al" || t == "el") && i+1 < len(raw) && raw[i+1] != "" {
			out = append(out, "el"+raw[i+1])
			i++
			continue
		}
		if mapped, ok := tokenMap[t]; ok {
			t = mapped
		}
		if !person && len(out) > 0 && out[len(out)-1] == t {
			continue
		}
		out = append(out, t)
	}

	kept := out[:0]
	for _, t := range out {
		if len(t) > 1 {
			kept = append(kept, t)
		}
	}
	return kept
}

// CleanName returns the Title-cased normalized form of a name.
func CleanName(name string, person bool) string {
	toks := Tokens(name, person)
	if len(toks) == 0 {
		return ""
	}
	titled := make([]string, len(toks))
	for i, t := range toks {
		titled[i] = TitleWord(t)
	}
	return strings.Join(titled, " ")
}

// TitleWord upper-cases the first letter of a lowercase ASCII token.
func TitleWord(t string) string {
	if t == "" {
		return t
	}
	if t[0] >= 'a' && t[0] <= 'z' {
		return string(t[0]-'a'+'A') + t[1:]
	}
	return t
}
