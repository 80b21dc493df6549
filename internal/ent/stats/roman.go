package stats

import (
	"cmp"
	"regexp"
	"strings"
)

var romanRe = regexp.MustCompile(`^(.*?)([IVX]+)$`)

var romanDigits = map[byte]int{'I': 1, 'V': 5, 'X': 10}

// roman converts a roman numeral made of I, V and X to an integer.
func roman(s string) int {
	var res int
	for i := 0; i < len(s); i++ {
		v := romanDigits[s[i]]
		if i+1 < len(s) && v < romanDigits[s[i+1]] {
			res -= v
		} else {
			res += v
		}
	}
	return res
}

type subtypePart struct {
	text string
	num  int
}

// subtypeKey splits a label like `CAS-TypeIII-B` into parts. Only the first
// part ending with a roman numeral counts as a number, later parts are
// subtype letters.
func subtypeKey(s string) []subtypePart {
	segs := strings.Split(s, "-")
	res := make([]subtypePart, len(segs))
	numSeen := false
	for i, seg := range segs {
		if !numSeen {
			if m := romanRe.FindStringSubmatch(seg); m != nil {
				res[i] = subtypePart{text: m[1], num: roman(m[2])}
				numSeen = true
				continue
			}
		}
		res[i] = subtypePart{text: seg}
	}
	return res
}

func isUnknown(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "unknown")
}

// CompareSubtypes orders CRISPR-Cas subtype labels: type numbers in
// numeric order, `Unknown` after everything else.
func CompareSubtypes(a, b string) int {
	ua, ub := isUnknown(a), isUnknown(b)
	switch {
	case ua && ub:
		return 0
	case ua:
		return 1
	case ub:
		return -1
	}

	ka, kb := subtypeKey(a), subtypeKey(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if c := cmp.Compare(ka[i].text, kb[i].text); c != 0 {
			return c
		}
		if c := cmp.Compare(ka[i].num, kb[i].num); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ka), len(kb))
}
