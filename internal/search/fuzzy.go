package search

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// TokenSetRatio scores how similar a and b are on a 0-100 scale, ignoring
// token order and repeated tokens. Both strings are case-folded and split
// on whitespace. When every token of one side appears in the other the
// score is 100; otherwise the sorted leftover tokens are compared by indel
// distance, together with the shared tokens as a common prefix, and the
// best of those comparisons wins.
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var sect, diffAB, diffBA []string
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			sect = append(sect, tok)
		} else {
			diffAB = append(diffAB, tok)
		}
	}
	for tok := range tb {
		if _, ok := ta[tok]; !ok {
			diffBA = append(diffBA, tok)
		}
	}

	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	sort.Strings(sect)
	sort.Strings(diffAB)
	sort.Strings(diffBA)

	joinedAB := strings.Join(diffAB, " ")
	joinedBA := strings.Join(diffBA, " ")
	abLen := utf8.RuneCountInString(joinedAB)
	baLen := utf8.RuneCountInString(joinedBA)
	sectLen := utf8.RuneCountInString(strings.Join(sect, " "))

	sep := 0
	if sectLen > 0 {
		sep = 1
	}
	sectABLen := sectLen + sep + abLen
	sectBALen := sectLen + sep + baLen

	result := normalized(indelDistance(joinedAB, joinedBA), sectABLen+sectBALen)
	if sectLen == 0 {
		return result
	}

	// "sect" against "sect diff": only the diff part differs, so the
	// distance is its length plus the joining space.
	sectABRatio := normalized(sep+abLen, sectLen+sectABLen)
	sectBARatio := normalized(sep+baLen, sectLen+sectBALen)

	return max(result, sectABRatio, sectBARatio)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func normalized(dist, lensum int) float64 {
	if lensum == 0 {
		return 100
	}
	return 100 * (1 - float64(dist)/float64(lensum))
}

// indelDistance is the number of single-rune insertions and deletions
// needed to turn a into b.
func indelDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	return len(ra) + len(rb) - 2*lcsLength(ra, rb)
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
