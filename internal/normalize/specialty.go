package normalize

import (
	"regexp"
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// specialtyCanonical maps each canonical specialty to the synonyms and
// abbreviations seen in BI exports.
var specialtyCanonical = map[string][]string{
	"dental":                  {"dentistry", "dental service", "dental clinic", "dent", "oral", "odontology"},
	"dermatology":             {"derma", "skin", "dermatologic", "dermatology clinic"},
	"ent":                     {"otolaryngology", "ear nose throat", "ent clinic", "ent department"},
	"pediatrics":              {"paediatrics", "peds", "children", "child health", "pediatrics clinic"},
	"gynecology & obstetrics": {"gyn", "obgyn", "ob/gyn", "gyne", "obstetrics", "obstetric", "ob"},
	"cardiology":              {"cardio", "heart", "cardiac"},
	"urology":                 {"uro", "urinary"},
	"radiology":               {"imaging", "xray", "x-ray", "radiology dept", "diagnostic imaging"},
	"gastroenterology":        {"gastro", "gi", "digestive"},
	"hepatology":              {"hepa", "liver"},
	"ophthalmology":           {"ophtha", "ophthalmic", "eye", "eye clinic"},
	"orthopedics":             {"orthopedic", "orthopaedic", "ortho", "bones", "orthopedics clinic"},
	"nutrition":               {"diet", "dietary", "nutrition clinic"},
	"icu":                     {"intensive care", "critical care"},
	"er":                      {"emergency", "a&e", "casualty", "ed", "emergency department", "accident & emergency"},
	"endoscopy":               {"endoscopic", "endoscopy unit"},
	"lab":                     {"laboratory", "labs", "pathology", "lab services"},
	"neurology":               {"neuro", "nervous system"},
	"oncology":                {"cancer", "onco"},
	"nephrology":              {"renal", "kidney"},
	"endocrinology":           {"endo", "hormones"},
	"psychiatry":              {"psych", "mental health"},
	"pulmonology":             {"respiratory", "chest", "pulmonary"},
}

var specialtyStopwords = map[string]bool{
	"service": true, "services": true, "dept": true, "department": true,
	"unit": true, "clinic": true, "center": true, "centre": true,
	"polyclinic": true, "ward": true, "opd": true, "ipd": true,
	"section": true, "division": true, "of": true,
}

var specialtyTokenMap = map[string]string{
	"obgyn": "obgyn", "ob": "obstetrics", "gyn": "gyne", "gi": "gastro",
	"ent": "ent", "derma": "derma", "ortho": "ortho", "ophtha": "ophtha",
	"x-ray": "xray", "xray": "xray", "a&e": "er", "ed": "er",
}

// specialtyFuzzyFloor is the minimum partial-ratio score (0-100) for the
// fuzzy fallback to accept a canonical specialty.
const specialtyFuzzyFloor = 88

var (
	specialtySplitRe = regexp.MustCompile(`[\s/,\-_]+`)
	canonicalOrder   = buildCanonicalOrder()
	canonicalWordRes = buildCanonicalWordRes()
)

func buildCanonicalOrder() []string {
	order := make([]string, 0, len(specialtyCanonical))
	for canon := range specialtyCanonical {
		order = append(order, canon)
	}
	sort.Strings(order)
	return order
}

// One word-boundary matcher per canonical key or synonym, probed in
// deterministic order.
func buildCanonicalWordRes() map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp)
	for canon, syns := range specialtyCanonical {
		for _, k := range append([]string{canon}, syns...) {
			if _, ok := res[k]; !ok {
				res[k] = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
			}
		}
	}
	return res
}

func cleanSpecialtyText(raw string) string {
	txt := strings.ToLower(strings.TrimSpace(raw))
	if txt == "" {
		return ""
	}
	txt = nonWordRe.ReplaceAllString(txt, " ")
	toks := specialtySplitRe.Split(txt, -1)
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if t == "" || specialtyStopwords[t] {
			continue
		}
		if mapped, ok := specialtyTokenMap[t]; ok {
			t = mapped
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

// Specialty maps a free-text specialty onto the canonical taxonomy.
// Unknown input returns "Unknown"; unmatched text is returned Title-cased.
func Specialty(raw string) string {
	base := cleanSpecialtyText(raw)
	if base == "" {
		return "Unknown"
	}

	for _, canon := range canonicalOrder {
		if base == canon {
			return titleSpecialty(canon)
		}
		for _, syn := range specialtyCanonical[canon] {
			if base == syn {
				return titleSpecialty(canon)
			}
		}
	}

	for _, canon := range canonicalOrder {
		keys := append([]string{canon}, specialtyCanonical[canon]...)
		for _, k := range keys {
			if canonicalWordRes[k].MatchString(base) {
				return titleSpecialty(canon)
			}
		}
	}

	best, bestScore := "", 0
	for _, canon := range canonicalOrder {
		for _, k := range append([]string{canon}, specialtyCanonical[canon]...) {
			// Short abbreviations ("ed", "gi") match as substrings of
			// unrelated words; keep them out of the fuzzy tier.
			if len(k) < 4 {
				continue
			}
			if sc := fuzzy.PartialRatio(base, k); sc > bestScore {
				bestScore, best = sc, canon
			}
		}
	}
	if bestScore >= specialtyFuzzyFloor && best != "" {
		return titleSpecialty(best)
	}

	return titleSpecialty(base)
}

func titleSpecialty(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = TitleWord(w)
	}
	return strings.Join(words, " ")
}
